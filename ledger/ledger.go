// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/council-dilution/events"
	"github.com/danielhkuo/council-dilution/metrics"
	"github.com/danielhkuo/council-dilution/models"
)

// Options configure a Ledger. Owner, NumSeats and ProposalPeriod seed the
// stored configuration on first start only.
type Options struct {
	Owner          common.Address
	NumSeats       uint64
	ProposalPeriod time.Duration
	Eligibility    string

	Clock   Clock
	Bus     *events.Bus
	Metrics *metrics.LedgerMetrics
	Logger  *slog.Logger
}

// Ledger holds the election, proposal and dilution ledgers of one instance.
// Every mutating call runs alone and inside a single transaction.
type Ledger struct {
	mu sync.RWMutex

	db          *sql.DB
	clock       Clock
	bus         *events.Bus
	metrics     *metrics.LedgerMetrics
	logger      *slog.Logger
	eligibility string
}

// New creates a ledger over a database that already has the schema
func New(ctx context.Context, db *sql.DB, opts Options) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("ledger: database is required")
	}

	switch opts.Eligibility {
	case "":
		opts.Eligibility = models.EligibilityLatest
	case models.EligibilityLatest, models.EligibilityPinned:
	default:
		return nil, fmt.Errorf("ledger: unknown eligibility mode %q", opts.Eligibility)
	}

	l := &Ledger{
		db:          db,
		clock:       opts.Clock,
		bus:         opts.Bus,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		eligibility: opts.Eligibility,
	}
	if l.clock == nil {
		l.clock = SystemClock()
	}
	if l.metrics == nil {
		l.metrics = metrics.Ledger
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}

	if err := l.bootstrap(ctx, opts); err != nil {
		return nil, err
	}
	return l, nil
}

// bootstrap writes the initial configuration if none is stored yet
func (l *Ledger) bootstrap(ctx context.Context, opts Options) error {
	var count int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_config`).Scan(&count); err != nil {
		return fmt.Errorf("ledger: failed to read config: %w", err)
	}
	if count > 0 {
		cfg, err := loadConfig(ctx, l.db)
		if err != nil {
			return err
		}
		if opts.Owner != models.NullAddress && opts.Owner != cfg.Owner {
			l.logger.Warn("configured owner differs from stored owner; keeping stored owner",
				"event", "ledger_owner_mismatch",
				"configured", opts.Owner.Hex(),
				"stored", cfg.Owner.Hex(),
			)
		}
		return nil
	}

	if opts.Owner == models.NullAddress {
		return fmt.Errorf("ledger: owner must not be the null address")
	}
	if opts.NumSeats == 0 {
		return fmt.Errorf("ledger: %w", ErrInvalidSeats)
	}
	period := int64(opts.ProposalPeriod / time.Second)
	if period <= 0 {
		return fmt.Errorf("ledger: %w", ErrInvalidPeriod)
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO ledger_config (id, owner, num_seats, proposal_period, latest_election_id)
		VALUES (1, $1, $2, $3, '')
	`, opts.Owner.Hex(), int64(opts.NumSeats), period)
	if err != nil {
		return fmt.Errorf("ledger: failed to store initial config: %w", err)
	}

	l.logger.Info("ledger initialized",
		"event", "ledger_initialized",
		"owner", opts.Owner.Hex(),
		"num_seats", opts.NumSeats,
		"proposal_period_s", period,
	)
	return nil
}

// Eligibility returns the configured eligibility mode
func (l *Ledger) Eligibility() string {
	return l.eligibility
}

// txn is the state of one mutating call
type txn struct {
	*sql.Tx
	now     time.Time
	emitted []events.Event
}

// emit stores an event in the same transaction as the state change
func (t *txn) emit(ctx context.Context, typ events.Type, payload any) error {
	e, err := events.New(typ, t.now, payload)
	if err != nil {
		return err
	}

	if err := t.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM ledger_event`).Scan(&e.Sequence); err != nil {
		return fmt.Errorf("failed to allocate event sequence: %w", err)
	}

	_, err = t.ExecContext(ctx, `
		INSERT INTO ledger_event (seq, id, type, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, e.Sequence, e.ID, string(e.Type), e.OccurredAt.Unix(), string(e.Payload))
	if err != nil {
		return fmt.Errorf("failed to store %s event: %w", typ, err)
	}

	t.emitted = append(t.emitted, e)
	return nil
}

// update runs fn in a transaction under the write lock. Nothing fn wrote
// survives an error; events are published only after commit.
func (l *Ledger) update(ctx context.Context, op string, fn func(t *txn) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		l.observe(op, err)
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	t := &txn{Tx: tx, now: l.clock.Now().UTC().Truncate(time.Second)}
	if err := fn(t); err != nil {
		l.observe(op, err)
		return err
	}

	if err := tx.Commit(); err != nil {
		l.observe(op, err)
		return fmt.Errorf("%s: failed to commit: %w", op, err)
	}

	l.observe(op, nil)
	for _, e := range t.emitted {
		l.metrics.EventsTotal.With("type", string(e.Type)).Add(1)
		l.bus.Publish(e)
	}
	return nil
}

// view runs a read-only fn under the read lock
func (l *Ledger) view(fn func(q querier) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(l.db)
}

func (l *Ledger) observe(op string, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = CodeOf(err)
		if outcome == "" {
			outcome = metrics.OutcomeError
		}
	}
	l.metrics.OperationsTotal.With("operation", op, "outcome", outcome).Add(1)
}

// Events returns stored events with sequence greater than after, oldest
// first, at most limit of them
func (l *Ledger) Events(ctx context.Context, after int64, limit int) ([]events.Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	out := []events.Event{}
	err := l.view(func(q querier) error {
		rows, err := q.QueryContext(ctx, `
			SELECT seq, id, type, occurred_at, payload
			FROM ledger_event
			WHERE seq > $1
			ORDER BY seq
			LIMIT $2
		`, after, limit)
		if err != nil {
			return fmt.Errorf("failed to query events: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e events.Event
			var typ, payload string
			var at int64
			if err := rows.Scan(&e.Sequence, &e.ID, &typ, &at, &payload); err != nil {
				return fmt.Errorf("failed to scan event: %w", err)
			}
			e.Type = events.Type(typ)
			e.OccurredAt = time.Unix(at, 0).UTC()
			e.Payload = []byte(payload)
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}
