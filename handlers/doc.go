// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the council-dilution API.

# Handler Types

Each handler is a struct with ledger and config dependencies:

  - ElectionHandler: Election logging and weight queries
  - ProposalHandler: Proposal logging, diluted ratios and receipts
  - DilutionHandler: Dilute and reverse
  - ConfigHandler: Global configuration and owner changes
  - EventHandler: Event outbox listing

Handlers are created via constructor functions that accept the ledger and Config:

	electionHandler := handlers.NewElectionHandler(l, cfg)

# Caller Identity

Mutating requests identify the caller with two headers:

	X-Caller-Address: 0x...
	X-Caller-Key:     key issued with --issue-key

A missing identity is 401, a key that does not match the address is 403.
Whether the caller may act (owner only, voter with delegated weight) is
decided by the ledger.

# Dilution Flow

	POST   /elections                          → LogElection (owner)
	POST   /proposals                          → LogProposal (any caller)
	POST   /proposals/{id}/dilutions/{member}  → Dilute (caller is the voter)
	DELETE /proposals/{id}/dilutions/{member}  → Invalidate
	GET    /proposals/{id}/members/{member}/weight → DilutedWeight

Weights travel as decimal strings. Ratios are decimal strings scaled by
10^18, which is returned alongside as "precision".

# Errors

Ledger failures map to status codes via middleware.LedgerError: validation
400, authorization 403, not found 404, state conflicts and duplicate ids 409,
arithmetic 422. The response carries the ledger error code.
*/
package handlers
