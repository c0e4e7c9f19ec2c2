// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/council-dilution/events"
	"github.com/danielhkuo/council-dilution/models"
)

// Config returns the stored configuration
func (l *Ledger) Config(ctx context.Context) (models.GlobalConfig, error) {
	var cfg models.GlobalConfig
	err := l.view(func(q querier) error {
		var err error
		cfg, err = loadConfig(ctx, q)
		return err
	})
	return cfg, err
}

// ownerOnly loads the config and rejects callers other than the owner
func ownerOnly(ctx context.Context, t *txn, caller common.Address) (models.GlobalConfig, error) {
	cfg, err := loadConfig(ctx, t)
	if err != nil {
		return cfg, err
	}
	if caller != cfg.Owner {
		return cfg, ErrUnauthorized
	}
	return cfg, nil
}

// ModifySeats sets the roster size required of future elections
func (l *Ledger) ModifySeats(ctx context.Context, caller common.Address, seats uint64) (old uint64, err error) {
	err = l.update(ctx, "modify_seats", func(t *txn) error {
		cfg, err := ownerOnly(ctx, t, caller)
		if err != nil {
			return err
		}
		if seats == 0 || seats > 1<<62 {
			return ErrInvalidSeats
		}
		old = cfg.NumSeats

		if _, err := t.ExecContext(ctx, `UPDATE ledger_config SET num_seats = $1 WHERE id = 1`, int64(seats)); err != nil {
			return fmt.Errorf("failed to update seats: %w", err)
		}
		return t.emit(ctx, events.SeatsModifiedType, events.SeatsModified{Old: old, New: seats})
	})
	if err != nil {
		return 0, err
	}

	l.logger.Info("seats modified",
		"event", "seats_modified",
		"old", humanize.Comma(int64(old)),
		"new", humanize.Comma(int64(seats)),
	)
	return old, nil
}

// ModifyProposalPeriod sets the window length of proposals logged from now
// on. Periods are whole seconds.
func (l *Ledger) ModifyProposalPeriod(ctx context.Context, caller common.Address, period time.Duration) (old time.Duration, err error) {
	secs := int64(period / time.Second)

	err = l.update(ctx, "modify_proposal_period", func(t *txn) error {
		cfg, err := ownerOnly(ctx, t, caller)
		if err != nil {
			return err
		}
		if secs <= 0 {
			return ErrInvalidPeriod
		}
		old = cfg.ProposalPeriod

		if _, err := t.ExecContext(ctx, `UPDATE ledger_config SET proposal_period = $1 WHERE id = 1`, secs); err != nil {
			return fmt.Errorf("failed to update proposal period: %w", err)
		}
		return t.emit(ctx, events.ProposalPeriodModifiedType, events.ProposalPeriodModified{
			Old: int64(old / time.Second),
			New: secs,
		})
	})
	if err != nil {
		return 0, err
	}

	l.logger.Info("proposal period modified",
		"event", "proposal_period_modified",
		"old_s", humanize.Comma(int64(old/time.Second)),
		"new_s", humanize.Comma(secs),
	)
	return old, nil
}

// TransferOwnership hands the owner role to next
func (l *Ledger) TransferOwnership(ctx context.Context, caller, next common.Address) (old common.Address, err error) {
	err = l.update(ctx, "transfer_ownership", func(t *txn) error {
		cfg, err := ownerOnly(ctx, t, caller)
		if err != nil {
			return err
		}
		if next == models.NullAddress {
			return ErrNullAddress
		}
		old = cfg.Owner

		if _, err := t.ExecContext(ctx, `UPDATE ledger_config SET owner = $1 WHERE id = 1`, next.Hex()); err != nil {
			return fmt.Errorf("failed to update owner: %w", err)
		}
		return t.emit(ctx, events.OwnershipTransferredType, events.OwnershipTransferred{Old: old, New: next})
	})
	if err != nil {
		return common.Address{}, err
	}

	l.logger.Info("ownership transferred",
		"event", "ownership_transferred",
		"old", old.Hex(),
		"new", next.Hex(),
	)
	return old, nil
}
