// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/council-dilution/events"
	"github.com/danielhkuo/council-dilution/models"
)

// LogProposal opens a voting window for id. A nil start means now. The
// window length is the proposal period configured at this moment.
func (l *Ledger) LogProposal(ctx context.Context, caller common.Address, id string, start *time.Time) (models.Proposal, error) {
	var p models.Proposal

	err := l.update(ctx, "log_proposal", func(t *txn) error {
		if id == "" {
			return ErrEmptyProposalID
		}
		if _, exists, err := loadProposal(ctx, t, id); err != nil {
			return err
		} else if exists {
			return ErrDuplicateProposalID
		}

		cfg, err := loadConfig(ctx, t)
		if err != nil {
			return err
		}

		startUnix := t.now.Unix()
		if start != nil {
			startUnix = start.Unix()
		}
		period := int64(cfg.ProposalPeriod / time.Second)
		if startUnix > math.MaxInt64-period {
			return ErrOverflow
		}
		endUnix := startUnix + period

		p = models.Proposal{
			ID:         id,
			Start:      time.Unix(startUnix, 0).UTC(),
			End:        time.Unix(endUnix, 0).UTC(),
			ElectionID: cfg.LatestElectionID,
			LoggedAt:   t.now,
		}

		_, err = t.ExecContext(ctx, `
			INSERT INTO proposal (id, start_at, end_at, election_id, logged_at)
			VALUES ($1, $2, $3, $4, $5)
		`, id, startUnix, endUnix, cfg.LatestElectionID, t.now.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert proposal: %w", err)
		}

		return t.emit(ctx, events.ProposalLoggedType, events.ProposalLogged{
			ProposalID: id,
			Start:      startUnix,
			End:        endUnix,
		})
	})
	if err != nil {
		return models.Proposal{}, err
	}

	l.logger.Info("proposal logged",
		"event", "proposal_logged",
		"proposal_id", id,
		"caller", caller.Hex(),
		"start", p.Start,
		"period_s", humanize.Comma(int64(p.End.Sub(p.Start)/time.Second)),
	)
	return p, nil
}

// Proposal returns a logged proposal
func (l *Ledger) Proposal(ctx context.Context, id string) (models.Proposal, error) {
	var p models.Proposal
	err := l.view(func(q querier) error {
		var exists bool
		var err error
		p, exists, err = loadProposal(ctx, q, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrProposalNotFound
		}
		return nil
	})
	return p, err
}

// IsWithinWindow reports whether now falls inside the proposal's window.
// Unknown proposals are never within a window.
func (l *Ledger) IsWithinWindow(ctx context.Context, id string, now time.Time) (bool, error) {
	p, err := l.Proposal(ctx, id)
	if KindOf(err) == KindNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.IsWithinWindow(now), nil
}

// GetValidProposals maps each id to itself if logged, else to "". Store
// failures leave the remaining entries empty.
func (l *Ledger) GetValidProposals(ctx context.Context, ids []string) []string {
	out := make([]string, len(ids))
	_ = l.view(func(q querier) error {
		for i, id := range ids {
			if id == "" {
				continue
			}
			_, exists, err := loadProposal(ctx, q, id)
			if err != nil {
				l.logger.Error("failed to check proposal",
					"event", "proposal_lookup_failed",
					"proposal_id", id,
					"error", err,
				)
				return err
			}
			if exists {
				out[i] = id
			}
		}
		return nil
	})
	return out
}
