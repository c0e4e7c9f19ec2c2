// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Weights are stored as decimal TEXT; 256-bit values do not fit any native
// integer column on either backend. Times are unix seconds.
const schema = `
-- Global configuration (single row)
CREATE TABLE IF NOT EXISTS ledger_config (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    owner TEXT NOT NULL,
    num_seats BIGINT NOT NULL CHECK (num_seats > 0),
    proposal_period BIGINT NOT NULL CHECK (proposal_period > 0),
    latest_election_id TEXT NOT NULL DEFAULT ''
);

-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    seq BIGINT NOT NULL UNIQUE,
    logged_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS election_member (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    ord INTEGER NOT NULL,
    member TEXT NOT NULL,
    PRIMARY KEY (election_id, ord)
);

CREATE INDEX IF NOT EXISTS idx_election_member_member ON election_member(election_id, member);

CREATE TABLE IF NOT EXISTS election_delegation (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter TEXT NOT NULL,
    nominee TEXT NOT NULL,
    weight TEXT NOT NULL,
    ord INTEGER NOT NULL,
    PRIMARY KEY (election_id, voter, nominee)
);

CREATE INDEX IF NOT EXISTS idx_election_delegation_voter ON election_delegation(election_id, voter, ord);

CREATE TABLE IF NOT EXISTS election_nominee (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    nominee TEXT NOT NULL,
    weight TEXT NOT NULL,
    ord INTEGER NOT NULL,
    PRIMARY KEY (election_id, nominee)
);

-- Proposals
CREATE TABLE IF NOT EXISTS proposal (
    id TEXT PRIMARY KEY,
    start_at BIGINT NOT NULL,
    end_at BIGINT NOT NULL,
    election_id TEXT NOT NULL DEFAULT '',
    logged_at BIGINT NOT NULL
);

-- Dilution receipts
CREATE TABLE IF NOT EXISTS dilution_receipt (
    proposal_id TEXT NOT NULL REFERENCES proposal(id) ON DELETE CASCADE,
    member TEXT NOT NULL,
    total TEXT NOT NULL,
    PRIMARY KEY (proposal_id, member)
);

CREATE TABLE IF NOT EXISTS dilution_contribution (
    proposal_id TEXT NOT NULL,
    member TEXT NOT NULL,
    voter TEXT NOT NULL,
    weight TEXT NOT NULL,
    PRIMARY KEY (proposal_id, member, voter),
    FOREIGN KEY (proposal_id, member) REFERENCES dilution_receipt(proposal_id, member) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_dilution_contribution_voter ON dilution_contribution(proposal_id, voter);

-- Dilutor set, compacted by swap-and-truncate on removal
CREATE TABLE IF NOT EXISTS dilutor (
    proposal_id TEXT NOT NULL,
    member TEXT NOT NULL,
    slot INTEGER NOT NULL,
    voter TEXT NOT NULL,
    PRIMARY KEY (proposal_id, member, slot),
    FOREIGN KEY (proposal_id, member) REFERENCES dilution_receipt(proposal_id, member) ON DELETE CASCADE
);

-- Emitted events (outbox)
CREATE TABLE IF NOT EXISTS ledger_event (
    seq BIGINT PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL,
    occurred_at BIGINT NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_event_type ON ledger_event(type);
`
