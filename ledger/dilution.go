// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/danielhkuo/council-dilution/events"
	"github.com/danielhkuo/council-dilution/models"
)

// eligibleElection picks the election whose roster and weights govern
// dilution of p
func (l *Ledger) eligibleElection(cfg models.GlobalConfig, p models.Proposal) (string, error) {
	if l.eligibility == models.EligibilityPinned {
		if p.ElectionID == "" {
			return "", ErrNoElection
		}
		return p.ElectionID, nil
	}
	return cfg.LatestElectionID, nil
}

// checkDilutable runs the checks shared by Dilute and InvalidateDilution and
// returns the governing election
func (l *Ledger) checkDilutable(ctx context.Context, t *txn, proposalID string, member common.Address) (string, error) {
	p, exists, err := loadProposal(ctx, t, proposalID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrProposalNotFound
	}
	if !p.IsWithinWindow(t.now) {
		return "", ErrOutsideWindow
	}
	if member == models.NullAddress {
		return "", ErrNullAddress
	}

	cfg, err := loadConfig(ctx, t)
	if err != nil {
		return "", err
	}
	electionID, err := l.eligibleElection(cfg, p)
	if err != nil {
		return "", err
	}

	ok, err := isMember(ctx, t, electionID, member)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotCouncilMember
	}
	return electionID, nil
}

// Dilute discounts member's weight on the proposal by everything voter
// delegated to member
func (l *Ledger) Dilute(ctx context.Context, voter common.Address, proposalID string, member common.Address) (models.DilutionChange, error) {
	change := models.DilutionChange{ProposalID: proposalID, Member: member, Voter: voter}

	err := l.update(ctx, "dilute", func(t *txn) error {
		electionID, err := l.checkDilutable(ctx, t, proposalID, member)
		if err != nil {
			return err
		}

		weight, err := delegatedWeight(ctx, t, electionID, voter, member)
		if err != nil {
			return err
		}
		if weight.IsZero() {
			return ErrNoDelegatedWeight
		}

		current, err := contribution(ctx, t, proposalID, member, voter)
		if err != nil {
			return err
		}
		if !current.IsZero() {
			return ErrAlreadyDiluted
		}

		old, exists, err := receiptTotal(ctx, t, proposalID, member)
		if err != nil {
			return err
		}
		var total uint256.Int
		if _, overflow := total.AddOverflow(&old, &weight); overflow {
			return ErrOverflow
		}

		if exists {
			_, err = t.ExecContext(ctx, `
				UPDATE dilution_receipt SET total = $1 WHERE proposal_id = $2 AND member = $3
			`, total.Dec(), proposalID, member.Hex())
		} else {
			_, err = t.ExecContext(ctx, `
				INSERT INTO dilution_receipt (proposal_id, member, total) VALUES ($1, $2, $3)
			`, proposalID, member.Hex(), total.Dec())
		}
		if err != nil {
			return fmt.Errorf("failed to write dilution receipt: %w", err)
		}

		_, err = t.ExecContext(ctx, `
			INSERT INTO dilution_contribution (proposal_id, member, voter, weight)
			VALUES ($1, $2, $3, $4)
		`, proposalID, member.Hex(), voter.Hex(), weight.Dec())
		if err != nil {
			return fmt.Errorf("failed to record contribution: %w", err)
		}

		var slot int64
		err = t.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM dilutor WHERE proposal_id = $1 AND member = $2
		`, proposalID, member.Hex()).Scan(&slot)
		if err != nil {
			return fmt.Errorf("failed to count dilutors: %w", err)
		}
		_, err = t.ExecContext(ctx, `
			INSERT INTO dilutor (proposal_id, member, slot, voter) VALUES ($1, $2, $3, $4)
		`, proposalID, member.Hex(), slot, voter.Hex())
		if err != nil {
			return fmt.Errorf("failed to add dilutor: %w", err)
		}

		change.PreviousTotal = old
		change.Total = total

		return t.emit(ctx, events.DilutionCreatedType, events.DilutionChanged{
			ProposalID:    proposalID,
			Member:        member,
			PreviousTotal: old.Dec(),
			Total:         total.Dec(),
		})
	})
	if err != nil {
		return models.DilutionChange{}, err
	}

	l.logger.Info("dilution created",
		"event", "dilution_created",
		"proposal_id", proposalID,
		"member", member.Hex(),
		"voter", voter.Hex(),
		"total", humanize.BigComma(change.Total.ToBig()),
	)
	return change, nil
}

// InvalidateDilution reverses voter's dilution of member on the proposal
func (l *Ledger) InvalidateDilution(ctx context.Context, voter common.Address, proposalID string, member common.Address) (models.DilutionChange, error) {
	change := models.DilutionChange{ProposalID: proposalID, Member: member, Voter: voter}

	err := l.update(ctx, "invalidate_dilution", func(t *txn) error {
		if _, err := l.checkDilutable(ctx, t, proposalID, member); err != nil {
			return err
		}

		old, exists, err := receiptTotal(ctx, t, proposalID, member)
		if err != nil {
			return err
		}
		if !exists {
			return ErrReceiptNotFound
		}

		weight, err := contribution(ctx, t, proposalID, member, voter)
		if err != nil {
			return err
		}
		if weight.IsZero() {
			return ErrNoContribution
		}

		var total uint256.Int
		if old.Lt(&weight) {
			return ErrOverflow
		}
		total.Sub(&old, &weight)

		_, err = t.ExecContext(ctx, `
			UPDATE dilution_receipt SET total = $1 WHERE proposal_id = $2 AND member = $3
		`, total.Dec(), proposalID, member.Hex())
		if err != nil {
			return fmt.Errorf("failed to write dilution receipt: %w", err)
		}

		_, err = t.ExecContext(ctx, `
			DELETE FROM dilution_contribution WHERE proposal_id = $1 AND member = $2 AND voter = $3
		`, proposalID, member.Hex(), voter.Hex())
		if err != nil {
			return fmt.Errorf("failed to clear contribution: %w", err)
		}

		if err := removeDilutor(ctx, t, proposalID, member, voter); err != nil {
			return err
		}

		change.PreviousTotal = old
		change.Total = total

		return t.emit(ctx, events.DilutionModifiedType, events.DilutionChanged{
			ProposalID:    proposalID,
			Member:        member,
			PreviousTotal: old.Dec(),
			Total:         total.Dec(),
		})
	})
	if err != nil {
		return models.DilutionChange{}, err
	}

	l.logger.Info("dilution reversed",
		"event", "dilution_modified",
		"proposal_id", proposalID,
		"member", member.Hex(),
		"voter", voter.Hex(),
		"total", humanize.BigComma(change.Total.ToBig()),
	)
	return change, nil
}

// removeDilutor moves the last slot into the voter's slot and drops the last
func removeDilutor(ctx context.Context, t *txn, proposalID string, member, voter common.Address) error {
	var slot, last int64
	err := t.QueryRowContext(ctx, `
		SELECT slot FROM dilutor WHERE proposal_id = $1 AND member = $2 AND voter = $3
	`, proposalID, member.Hex(), voter.Hex()).Scan(&slot)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("dilutor set is missing %s", voter.Hex())
	}
	if err != nil {
		return fmt.Errorf("failed to find dilutor: %w", err)
	}

	err = t.QueryRowContext(ctx, `
		SELECT MAX(slot) FROM dilutor WHERE proposal_id = $1 AND member = $2
	`, proposalID, member.Hex()).Scan(&last)
	if err != nil {
		return fmt.Errorf("failed to find last dilutor: %w", err)
	}

	_, err = t.ExecContext(ctx, `
		DELETE FROM dilutor WHERE proposal_id = $1 AND member = $2 AND slot = $3
	`, proposalID, member.Hex(), slot)
	if err != nil {
		return fmt.Errorf("failed to remove dilutor: %w", err)
	}

	if slot != last {
		_, err = t.ExecContext(ctx, `
			UPDATE dilutor SET slot = $1 WHERE proposal_id = $2 AND member = $3 AND slot = $4
		`, slot, proposalID, member.Hex(), last)
		if err != nil {
			return fmt.Errorf("failed to compact dilutors: %w", err)
		}
	}
	return nil
}

// GetDilutedWeightForProposal returns member's remaining weight on the
// proposal as a fraction scaled by Precision
func (l *Ledger) GetDilutedWeightForProposal(ctx context.Context, proposalID string, member common.Address) (*uint256.Int, error) {
	var ratio *uint256.Int
	err := l.view(func(q querier) error {
		p, exists, err := loadProposal(ctx, q, proposalID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrProposalNotFound
		}

		cfg, err := loadConfig(ctx, q)
		if err != nil {
			return err
		}
		electionID, err := l.eligibleElection(cfg, p)
		if err != nil {
			return err
		}

		ok, err := isMember(ctx, q, electionID, member)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotCouncilMember
		}

		total, err := nomineeWeight(ctx, q, electionID, member)
		if err != nil {
			return err
		}
		diluted, _, err := receiptTotal(ctx, q, proposalID, member)
		if err != nil {
			return err
		}

		ratio = DilutedRatio(&total, &diluted)
		return nil
	})
	return ratio, err
}

// HasAddressDilutedForProposal reports whether voter currently dilutes any
// member on the proposal
func (l *Ledger) HasAddressDilutedForProposal(ctx context.Context, proposalID string, voter common.Address) (bool, error) {
	var n int
	err := l.view(func(q querier) error {
		err := q.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM dilution_contribution WHERE proposal_id = $1 AND voter = $2
		`, proposalID, voter.Hex()).Scan(&n)
		if err != nil {
			return fmt.Errorf("failed to check dilutions: %w", err)
		}
		return nil
	})
	return n > 0, err
}

// HasAddressDilutedForMember reports whether voter currently dilutes member
// on the proposal
func (l *Ledger) HasAddressDilutedForMember(ctx context.Context, proposalID string, member, voter common.Address) (bool, error) {
	w, err := l.VoterContribution(ctx, proposalID, member, voter)
	if err != nil {
		return false, err
	}
	return !w.IsZero(), nil
}

// DilutionReceipt returns the receipt for (proposal, member). A missing
// receipt is returned with Exists false and a zero total.
func (l *Ledger) DilutionReceipt(ctx context.Context, proposalID string, member common.Address) (models.DilutionReceipt, error) {
	r := models.DilutionReceipt{ProposalID: proposalID, Member: member, Dilutors: []models.Contribution{}}
	err := l.view(func(q querier) error {
		total, exists, err := receiptTotal(ctx, q, proposalID, member)
		if err != nil || !exists {
			return err
		}
		r.Exists = true
		r.Total = total
		r.Dilutors, err = dilutors(ctx, q, proposalID, member)
		return err
	})
	return r, err
}

// TotalDilutionValue is zero when no receipt exists
func (l *Ledger) TotalDilutionValue(ctx context.Context, proposalID string, member common.Address) (uint256.Int, error) {
	var total uint256.Int
	err := l.view(func(q querier) error {
		var err error
		total, _, err = receiptTotal(ctx, q, proposalID, member)
		return err
	})
	return total, err
}

// Dilutors returns the voters currently diluting member on the proposal
func (l *Ledger) Dilutors(ctx context.Context, proposalID string, member common.Address) ([]common.Address, error) {
	r, err := l.DilutionReceipt(ctx, proposalID, member)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, len(r.Dilutors))
	for i, c := range r.Dilutors {
		out[i] = c.Voter
	}
	return out, nil
}

// VoterContribution is zero when voter has no active dilution of member
func (l *Ledger) VoterContribution(ctx context.Context, proposalID string, member, voter common.Address) (uint256.Int, error) {
	var w uint256.Int
	err := l.view(func(q querier) error {
		var err error
		w, err = contribution(ctx, q, proposalID, member, voter)
		return err
	})
	return w, err
}
