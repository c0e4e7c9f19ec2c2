// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/danielhkuo/council-dilution/models"
)

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func parseStoredWeight(s string) (uint256.Int, error) {
	w, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("corrupt weight %q: %w", s, err)
	}
	return *w, nil
}

func loadConfig(ctx context.Context, q querier) (models.GlobalConfig, error) {
	var cfg models.GlobalConfig
	var owner string
	var seats, period int64

	err := q.QueryRowContext(ctx, `
		SELECT owner, num_seats, proposal_period, latest_election_id
		FROM ledger_config
		WHERE id = 1
	`).Scan(&owner, &seats, &period, &cfg.LatestElectionID)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Owner = common.HexToAddress(owner)
	cfg.NumSeats = uint64(seats)
	cfg.ProposalPeriod = time.Duration(period) * time.Second
	return cfg, nil
}

func electionExists(ctx context.Context, q querier, id string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM election WHERE id = $1`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check election: %w", err)
	}
	return n > 0, nil
}

func isMember(ctx context.Context, q querier, electionID string, member common.Address) (bool, error) {
	if electionID == "" {
		return false, nil
	}
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM election_member WHERE election_id = $1 AND member = $2
	`, electionID, member.Hex()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check council membership: %w", err)
	}
	return n > 0, nil
}

// delegatedWeight is zero when the pair is absent
func delegatedWeight(ctx context.Context, q querier, electionID string, voter, nominee common.Address) (uint256.Int, error) {
	var raw string
	err := q.QueryRowContext(ctx, `
		SELECT weight FROM election_delegation
		WHERE election_id = $1 AND voter = $2 AND nominee = $3
	`, electionID, voter.Hex(), nominee.Hex()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return uint256.Int{}, nil
	}
	if err != nil {
		return uint256.Int{}, fmt.Errorf("failed to load delegated weight: %w", err)
	}
	return parseStoredWeight(raw)
}

// nomineeWeight is zero when the nominee is absent
func nomineeWeight(ctx context.Context, q querier, electionID string, nominee common.Address) (uint256.Int, error) {
	var raw string
	err := q.QueryRowContext(ctx, `
		SELECT weight FROM election_nominee
		WHERE election_id = $1 AND nominee = $2
	`, electionID, nominee.Hex()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return uint256.Int{}, nil
	}
	if err != nil {
		return uint256.Int{}, fmt.Errorf("failed to load voting weight: %w", err)
	}
	return parseStoredWeight(raw)
}

func loadProposal(ctx context.Context, q querier, id string) (models.Proposal, bool, error) {
	var p models.Proposal
	var start, end, loggedAt int64

	err := q.QueryRowContext(ctx, `
		SELECT id, start_at, end_at, election_id, logged_at
		FROM proposal
		WHERE id = $1
	`, id).Scan(&p.ID, &start, &end, &p.ElectionID, &loggedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, false, nil
	}
	if err != nil {
		return p, false, fmt.Errorf("failed to load proposal: %w", err)
	}

	p.Start = time.Unix(start, 0).UTC()
	p.End = time.Unix(end, 0).UTC()
	p.LoggedAt = time.Unix(loggedAt, 0).UTC()
	return p, true, nil
}

// receiptTotal reports the receipt's total and whether the receipt exists
func receiptTotal(ctx context.Context, q querier, proposalID string, member common.Address) (uint256.Int, bool, error) {
	var raw string
	err := q.QueryRowContext(ctx, `
		SELECT total FROM dilution_receipt WHERE proposal_id = $1 AND member = $2
	`, proposalID, member.Hex()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return uint256.Int{}, false, nil
	}
	if err != nil {
		return uint256.Int{}, false, fmt.Errorf("failed to load dilution receipt: %w", err)
	}
	total, err := parseStoredWeight(raw)
	return total, err == nil, err
}

// contribution is zero when the voter has no active dilution
func contribution(ctx context.Context, q querier, proposalID string, member, voter common.Address) (uint256.Int, error) {
	var raw string
	err := q.QueryRowContext(ctx, `
		SELECT weight FROM dilution_contribution
		WHERE proposal_id = $1 AND member = $2 AND voter = $3
	`, proposalID, member.Hex(), voter.Hex()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return uint256.Int{}, nil
	}
	if err != nil {
		return uint256.Int{}, fmt.Errorf("failed to load contribution: %w", err)
	}
	return parseStoredWeight(raw)
}

// dilutors lists the dilutor set in slot order with each voter's contribution
func dilutors(ctx context.Context, q querier, proposalID string, member common.Address) ([]models.Contribution, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT d.voter, c.weight
		FROM dilutor d
		JOIN dilution_contribution c
		  ON c.proposal_id = d.proposal_id AND c.member = d.member AND c.voter = d.voter
		WHERE d.proposal_id = $1 AND d.member = $2
		ORDER BY d.slot
	`, proposalID, member.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to query dilutors: %w", err)
	}
	defer rows.Close()

	out := []models.Contribution{}
	for rows.Next() {
		var voter, raw string
		if err := rows.Scan(&voter, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan dilutor: %w", err)
		}
		w, err := parseStoredWeight(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Contribution{Voter: common.HexToAddress(voter), Weight: w})
	}
	return out, rows.Err()
}
