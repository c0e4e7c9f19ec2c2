// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type Type string

// Event types
const (
	ElectionLoggedType         Type = "ElectionLogged"
	ProposalLoggedType         Type = "ProposalLogged"
	DilutionCreatedType        Type = "DilutionCreated"
	DilutionModifiedType       Type = "DilutionModified"
	SeatsModifiedType          Type = "SeatsModified"
	ProposalPeriodModifiedType Type = "ProposalPeriodModified"
	OwnershipTransferredType   Type = "OwnershipTransferred"
)

// Event is one emitted notification. Sequence is assigned by the ledger when
// the event is stored and increases by one per event.
type Event struct {
	ID         string          `json:"id"`
	Sequence   int64           `json:"sequence"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// New builds an event with a fresh ID and the JSON-encoded payload
func New(t Type, at time.Time, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", t, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: at.UTC(),
		Payload:    raw,
	}, nil
}

// Decode unmarshals the payload into v
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Payloads. Weights are decimal strings.

type ElectionLogged struct {
	ElectionID     string           `json:"election_id"`
	CouncilMembers []common.Address `json:"council_members"`
	Voters         []common.Address `json:"voters"`
	Nominees       []common.Address `json:"nominees"`
	Weights        []string         `json:"weights"`
}

type ProposalLogged struct {
	ProposalID string `json:"proposal_id"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
}

// DilutionChanged is the payload of DilutionCreated and DilutionModified
type DilutionChanged struct {
	ProposalID    string         `json:"proposal_id"`
	Member        common.Address `json:"member"`
	PreviousTotal string         `json:"previous_total"`
	Total         string         `json:"total"`
}

type SeatsModified struct {
	Old uint64 `json:"old"`
	New uint64 `json:"new"`
}

// ProposalPeriodModified values are seconds
type ProposalPeriodModified struct {
	Old int64 `json:"old"`
	New int64 `json:"new"`
}

type OwnershipTransferred struct {
	Old common.Address `json:"old"`
	New common.Address `json:"new"`
}
