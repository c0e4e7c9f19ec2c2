// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - LogElectionRequest: id, council_members, voters, nominees, weights
  - LogProposalRequest: id, optional start (unix seconds)
  - ValidProposalsRequest: ids
  - ModifySeatsRequest: seats
  - ModifyProposalPeriodRequest: seconds
  - TransferOwnershipRequest: owner

Addresses are 20-byte hex strings. Weights are decimal strings so that the
full 256-bit range survives JSON:

	{"weights": ["40", "30", "115792089237316195423570985008687907853269984665640564039457584007913129639935"]}

# Response Types

  - LogElectionResponse, LatestElectionResponse, ElectionResponse
  - VotedForResponse, WeightResponse
  - ProposalResponse, ValidProposalsResponse
  - DilutionResponse: previous_total and total of the receipt
  - DilutedWeightResponse: ratio scaled by 10^18
  - ReceiptResponse, HasDilutedResponse
  - ConfigResponse, ConfigChangeResponse
  - ErrorResponse: error, message, code

# Domain Types

  - Election: roster, aggregated delegations, per-nominee weight
  - Proposal: fixed [start, end] voting window
  - DilutionReceipt: per (proposal, member) total and dilutor set
  - DilutionChange: result of a dilute or invalidate call
  - GlobalConfig: owner, seat count, proposal period

Weights use github.com/holiman/uint256 and addresses use go-ethereum's
common.Address; the zero address is the null identity (NullAddress).

# Constants

Eligibility modes:

	EligibilityLatest = "latest"
	EligibilityPinned = "pinned"
*/
package models
