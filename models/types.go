// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Eligibility modes
const (
	EligibilityLatest = "latest"
	EligibilityPinned = "pinned"
)

var ErrInvalidWeight = errors.New("weight must be a non-negative decimal integer")

// NullAddress is the null identity
var NullAddress = common.Address{}

// ParseWeight parses a decimal weight string into a 256-bit unsigned integer
func ParseWeight(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, ErrInvalidWeight
	}
	w, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, ErrInvalidWeight
	}
	return w, nil
}

// Request types

type LogElectionRequest struct {
	ID             string   `json:"id"`
	CouncilMembers []string `json:"council_members"`
	Voters         []string `json:"voters"`
	Nominees       []string `json:"nominees"`
	Weights        []string `json:"weights"` // decimal strings, 256-bit
}

type LogProposalRequest struct {
	ID    string `json:"id"`
	Start *int64 `json:"start,omitempty"` // unix seconds; defaults to now
}

type ValidProposalsRequest struct {
	IDs []string `json:"ids"`
}

type ModifySeatsRequest struct {
	Seats uint64 `json:"seats"`
}

type ModifyProposalPeriodRequest struct {
	Seconds int64 `json:"seconds"`
}

type TransferOwnershipRequest struct {
	Owner string `json:"owner"`
}

// Response types

type LogElectionResponse struct {
	ElectionID string `json:"election_id"`
}

type LatestElectionResponse struct {
	ElectionID string `json:"election_id"`
}

type DelegationView struct {
	Voter   string `json:"voter"`
	Nominee string `json:"nominee"`
	Weight  string `json:"weight"`
}

type NomineeWeightView struct {
	Nominee string `json:"nominee"`
	Weight  string `json:"weight"`
}

type ElectionResponse struct {
	ID             string              `json:"id"`
	CouncilMembers []string            `json:"council_members"`
	Delegations    []DelegationView    `json:"delegations"`
	NomineeWeights []NomineeWeightView `json:"nominee_weights"`
	LoggedAt       time.Time           `json:"logged_at"`
}

type VotedForResponse struct {
	ElectionID string `json:"election_id"`
	Voter      string `json:"voter"`
	Nominee    string `json:"nominee"`
}

type WeightResponse struct {
	Voter   string `json:"voter,omitempty"`
	Nominee string `json:"nominee"`
	Weight  string `json:"weight"`
}

type ProposalResponse struct {
	ID         string `json:"id"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
	ElectionID string `json:"election_id,omitempty"`
	Active     bool   `json:"active"`
}

type ValidProposalsResponse struct {
	IDs []string `json:"ids"`
}

type DilutionResponse struct {
	ProposalID    string `json:"proposal_id"`
	Member        string `json:"member"`
	Voter         string `json:"voter"`
	PreviousTotal string `json:"previous_total"`
	Total         string `json:"total"`
}

type DilutedWeightResponse struct {
	ProposalID string `json:"proposal_id"`
	Member     string `json:"member"`
	Ratio      string `json:"ratio"`     // scaled by precision
	Precision  string `json:"precision"` // 10^18 == undiluted
}

type ContributionView struct {
	Voter  string `json:"voter"`
	Weight string `json:"weight"`
}

type ReceiptResponse struct {
	ProposalID string             `json:"proposal_id"`
	Member     string             `json:"member"`
	Exists     bool               `json:"exists"`
	Total      string             `json:"total"`
	Dilutors   []ContributionView `json:"dilutors"`
}

type HasDilutedResponse struct {
	ProposalID string `json:"proposal_id"`
	Voter      string `json:"voter"`
	Member     string `json:"member,omitempty"`
	Diluted    bool   `json:"diluted"`
}

type ConfigResponse struct {
	Owner                 string `json:"owner"`
	NumSeats              uint64 `json:"num_seats"`
	ProposalPeriodSeconds int64  `json:"proposal_period_seconds"`
	LatestElectionID      string `json:"latest_election_id"`
	Eligibility           string `json:"eligibility"`
}

type ConfigChangeResponse struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Domain types

// Delegation is the aggregated weight one voter gave one nominee in an election
type Delegation struct {
	Voter   common.Address
	Nominee common.Address
	Weight  uint256.Int
}

type NomineeWeight struct {
	Nominee common.Address
	Weight  uint256.Int
}

// Election is immutable once logged. Delegations and NomineeWeights keep the
// order in which pairs first appeared in the logged arrays.
type Election struct {
	ID             string
	Sequence       int64
	CouncilMembers []common.Address
	Delegations    []Delegation
	NomineeWeights []NomineeWeight
	LoggedAt       time.Time
}

type Proposal struct {
	ID    string
	Start time.Time
	End   time.Time
	// ElectionID is the latest election when the proposal was logged
	ElectionID string
	LoggedAt   time.Time
}

// IsWithinWindow reports whether start <= now <= end
func (p Proposal) IsWithinWindow(now time.Time) bool {
	return !now.Before(p.Start) && !now.After(p.End)
}

type Contribution struct {
	Voter  common.Address
	Weight uint256.Int
}

// DilutionReceipt is the record for one (proposal, council member) pair.
// Dilutors holds every voter with a non-zero contribution, in slot order.
type DilutionReceipt struct {
	ProposalID string
	Member     common.Address
	Exists     bool
	Total      uint256.Int
	Dilutors   []Contribution
}

// DilutionChange is the outcome of a dilute or invalidate call
type DilutionChange struct {
	ProposalID    string
	Member        common.Address
	Voter         common.Address
	PreviousTotal uint256.Int
	Total         uint256.Int
}

type GlobalConfig struct {
	Owner            common.Address
	NumSeats         uint64
	ProposalPeriod   time.Duration
	LatestElectionID string
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
