// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/danielhkuo/council-dilution/events"
	"github.com/danielhkuo/council-dilution/models"
)

// ElectionInput is an externally tallied election outcome. Voters, Nominees
// and Weights are parallel arrays.
type ElectionInput struct {
	ID             string
	CouncilMembers []common.Address
	Voters         []common.Address
	Nominees       []common.Address
	Weights        []uint256.Int
}

func (in ElectionInput) validate(numSeats uint64) error {
	if in.ID == "" {
		return ErrEmptyElectionID
	}
	if uint64(len(in.CouncilMembers)) != numSeats {
		return ErrInvalidCouncilSize
	}
	if len(in.Voters) == 0 {
		return ErrEmptyVoters
	}
	if len(in.Nominees) == 0 {
		return ErrEmptyNominees
	}
	if len(in.Weights) == 0 {
		return ErrEmptyWeights
	}
	if len(in.Voters) != len(in.Nominees) || len(in.Voters) != len(in.Weights) {
		return ErrMismatchedArrays
	}
	for _, list := range [][]common.Address{in.CouncilMembers, in.Voters, in.Nominees} {
		for _, a := range list {
			if a == models.NullAddress {
				return ErrNullAddress
			}
		}
	}
	return nil
}

type delegationKey struct {
	voter   common.Address
	nominee common.Address
}

// LogElection records an election outcome and makes it the latest election.
// Repeated (voter, nominee) pairs sum.
func (l *Ledger) LogElection(ctx context.Context, caller common.Address, in ElectionInput) error {
	var total uint256.Int

	err := l.update(ctx, "log_election", func(t *txn) error {
		cfg, err := loadConfig(ctx, t)
		if err != nil {
			return err
		}
		if caller != cfg.Owner {
			return ErrUnauthorized
		}
		if err := in.validate(cfg.NumSeats); err != nil {
			return err
		}

		exists, err := electionExists(ctx, t, in.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateElectionID
		}

		// Aggregate in first-seen order
		delegations := make(map[delegationKey]*uint256.Int)
		var delegationOrder []delegationKey
		nominees := make(map[common.Address]*uint256.Int)
		var nomineeOrder []common.Address

		for i := range in.Voters {
			w := &in.Weights[i]
			key := delegationKey{voter: in.Voters[i], nominee: in.Nominees[i]}

			d, ok := delegations[key]
			if !ok {
				d = new(uint256.Int)
				delegations[key] = d
				delegationOrder = append(delegationOrder, key)
			}
			if _, overflow := d.AddOverflow(d, w); overflow {
				return ErrOverflow
			}

			n, ok := nominees[key.nominee]
			if !ok {
				n = new(uint256.Int)
				nominees[key.nominee] = n
				nomineeOrder = append(nomineeOrder, key.nominee)
			}
			if _, overflow := n.AddOverflow(n, w); overflow {
				return ErrOverflow
			}

			// Only logged; saturates across nominees
			if _, overflow := total.AddOverflow(&total, w); overflow {
				total.SetAllOne()
			}
		}

		var seq int64
		if err := t.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM election`).Scan(&seq); err != nil {
			return fmt.Errorf("failed to allocate election sequence: %w", err)
		}

		_, err = t.ExecContext(ctx, `
			INSERT INTO election (id, seq, logged_at) VALUES ($1, $2, $3)
		`, in.ID, seq, t.now.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert election: %w", err)
		}

		for i, m := range in.CouncilMembers {
			_, err = t.ExecContext(ctx, `
				INSERT INTO election_member (election_id, ord, member) VALUES ($1, $2, $3)
			`, in.ID, i, m.Hex())
			if err != nil {
				return fmt.Errorf("failed to insert council member: %w", err)
			}
		}

		for i, key := range delegationOrder {
			_, err = t.ExecContext(ctx, `
				INSERT INTO election_delegation (election_id, voter, nominee, weight, ord)
				VALUES ($1, $2, $3, $4, $5)
			`, in.ID, key.voter.Hex(), key.nominee.Hex(), delegations[key].Dec(), i)
			if err != nil {
				return fmt.Errorf("failed to insert delegation: %w", err)
			}
		}

		for i, n := range nomineeOrder {
			_, err = t.ExecContext(ctx, `
				INSERT INTO election_nominee (election_id, nominee, weight, ord)
				VALUES ($1, $2, $3, $4)
			`, in.ID, n.Hex(), nominees[n].Dec(), i)
			if err != nil {
				return fmt.Errorf("failed to insert nominee weight: %w", err)
			}
		}

		if _, err := t.ExecContext(ctx, `UPDATE ledger_config SET latest_election_id = $1 WHERE id = 1`, in.ID); err != nil {
			return fmt.Errorf("failed to update latest election: %w", err)
		}

		weights := make([]string, len(in.Weights))
		for i := range in.Weights {
			weights[i] = in.Weights[i].Dec()
		}
		return t.emit(ctx, events.ElectionLoggedType, events.ElectionLogged{
			ElectionID:     in.ID,
			CouncilMembers: in.CouncilMembers,
			Voters:         in.Voters,
			Nominees:       in.Nominees,
			Weights:        weights,
		})
	})
	if err != nil {
		return err
	}

	l.logger.Info("election logged",
		"event", "election_logged",
		"election_id", in.ID,
		"council_members", len(in.CouncilMembers),
		"entries", len(in.Voters),
		"total_weight", humanize.BigComma(total.ToBig()),
	)
	return nil
}

// LatestElectionID returns the most recently logged election id, or ""
func (l *Ledger) LatestElectionID(ctx context.Context) (string, error) {
	var id string
	err := l.view(func(q querier) error {
		cfg, err := loadConfig(ctx, q)
		id = cfg.LatestElectionID
		return err
	})
	return id, err
}

// LatestDelegatedVoteWeight returns the weight voter gave nominee in the
// latest election, zero if absent
func (l *Ledger) LatestDelegatedVoteWeight(ctx context.Context, voter, nominee common.Address) (uint256.Int, error) {
	var w uint256.Int
	err := l.view(func(q querier) error {
		cfg, err := loadConfig(ctx, q)
		if err != nil {
			return err
		}
		w, err = delegatedWeight(ctx, q, cfg.LatestElectionID, voter, nominee)
		return err
	})
	return w, err
}

// LatestVotingWeight returns the aggregate weight of nominee in the latest
// election, zero if absent
func (l *Ledger) LatestVotingWeight(ctx context.Context, nominee common.Address) (uint256.Int, error) {
	var w uint256.Int
	err := l.view(func(q querier) error {
		cfg, err := loadConfig(ctx, q)
		if err != nil {
			return err
		}
		w, err = nomineeWeight(ctx, q, cfg.LatestElectionID, nominee)
		return err
	})
	return w, err
}

// ElectionMemberVotedFor returns the first nominee, in logging order, the
// voter gave non-zero weight to in the election. Unknown elections and
// voters yield the null address.
func (l *Ledger) ElectionMemberVotedFor(ctx context.Context, electionID string, voter common.Address) (common.Address, error) {
	var nominee common.Address
	err := l.view(func(q querier) error {
		var raw string
		err := q.QueryRowContext(ctx, `
			SELECT nominee FROM election_delegation
			WHERE election_id = $1 AND voter = $2 AND weight <> '0'
			ORDER BY ord
			LIMIT 1
		`, electionID, voter.Hex()).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load vote: %w", err)
		}
		nominee = common.HexToAddress(raw)
		return nil
	})
	return nominee, err
}

// Election returns the full record of a logged election
func (l *Ledger) Election(ctx context.Context, id string) (models.Election, error) {
	var e models.Election
	err := l.view(func(q querier) error {
		var loggedAt int64
		err := q.QueryRowContext(ctx, `SELECT id, seq, logged_at FROM election WHERE id = $1`, id).
			Scan(&e.ID, &e.Sequence, &loggedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrElectionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load election: %w", err)
		}
		e.LoggedAt = time.Unix(loggedAt, 0).UTC()

		if e.CouncilMembers, err = councilMembers(ctx, q, id); err != nil {
			return err
		}

		rows, err := q.QueryContext(ctx, `
			SELECT voter, nominee, weight FROM election_delegation
			WHERE election_id = $1 ORDER BY ord
		`, id)
		if err != nil {
			return fmt.Errorf("failed to query delegations: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var voter, nominee, raw string
			if err := rows.Scan(&voter, &nominee, &raw); err != nil {
				return fmt.Errorf("failed to scan delegation: %w", err)
			}
			w, err := parseStoredWeight(raw)
			if err != nil {
				return err
			}
			e.Delegations = append(e.Delegations, models.Delegation{
				Voter:   common.HexToAddress(voter),
				Nominee: common.HexToAddress(nominee),
				Weight:  w,
			})
		}
		if err := rows.Err(); err != nil {
			return err
		}

		nrows, err := q.QueryContext(ctx, `
			SELECT nominee, weight FROM election_nominee
			WHERE election_id = $1 ORDER BY ord
		`, id)
		if err != nil {
			return fmt.Errorf("failed to query nominee weights: %w", err)
		}
		defer nrows.Close()
		for nrows.Next() {
			var nominee, raw string
			if err := nrows.Scan(&nominee, &raw); err != nil {
				return fmt.Errorf("failed to scan nominee weight: %w", err)
			}
			w, err := parseStoredWeight(raw)
			if err != nil {
				return err
			}
			e.NomineeWeights = append(e.NomineeWeights, models.NomineeWeight{
				Nominee: common.HexToAddress(nominee),
				Weight:  w,
			})
		}
		return nrows.Err()
	})
	return e, err
}

// LatestCouncilMembers returns the roster of the latest election, empty
// before the first election
func (l *Ledger) LatestCouncilMembers(ctx context.Context) ([]common.Address, error) {
	var members []common.Address
	err := l.view(func(q querier) error {
		cfg, err := loadConfig(ctx, q)
		if err != nil {
			return err
		}
		members, err = councilMembers(ctx, q, cfg.LatestElectionID)
		return err
	})
	return members, err
}

// IsCouncilMember reports whether member is on the latest election's roster
func (l *Ledger) IsCouncilMember(ctx context.Context, member common.Address) (bool, error) {
	var ok bool
	err := l.view(func(q querier) error {
		cfg, err := loadConfig(ctx, q)
		if err != nil {
			return err
		}
		ok, err = isMember(ctx, q, cfg.LatestElectionID, member)
		return err
	})
	return ok, err
}

func councilMembers(ctx context.Context, q querier, electionID string) ([]common.Address, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT member FROM election_member WHERE election_id = $1 ORDER BY ord
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query council members: %w", err)
	}
	defer rows.Close()

	members := []common.Address{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan council member: %w", err)
		}
		members = append(members, common.HexToAddress(m))
	}
	return members, rows.Err()
}
