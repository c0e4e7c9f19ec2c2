// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/danielhkuo/council-dilution/auth"
	"github.com/danielhkuo/council-dilution/cliparse"
	"github.com/danielhkuo/council-dilution/db"
	"github.com/danielhkuo/council-dilution/events"
	"github.com/danielhkuo/council-dilution/ledger"
)

// Well-known test addresses
var (
	Owner    = common.HexToAddress("0x000000000000000000000000000000000000000a")
	M1       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	M2       = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	N1       = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	N2       = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	V1       = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	V2       = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	V3       = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	V4       = common.HexToAddress("0x00000000000000000000000000000000000000c4")
	V5       = common.HexToAddress("0x00000000000000000000000000000000000000c5")
	Stranger = common.HexToAddress("0x00000000000000000000000000000000000000ff")
)

// Epoch is the fake clock's starting time
var Epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// SetupTestDB creates a fresh on-disk SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    "file:test.db",
		DatabaseType:   db.TypeSQLite,
		CallerKeySalt:  "test-caller-salt",
		OwnerAddress:   Owner.Hex(),
		NumSeats:       2,
		ProposalPeriod: cliparse.DefaultProposalPeriod,
		Eligibility:    "latest",
	}
}

// FakeClock is a settable ledger clock
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock() *FakeClock {
	return &FakeClock{now: Epoch}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// DiscardLogger drops all log output
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestLedger builds a ledger over a fresh database using cfg's owner,
// seats, period and eligibility
func NewTestLedger(t *testing.T, cfg cliparse.Config, clock *FakeClock) (*ledger.Ledger, *events.Bus) {
	t.Helper()

	bus := events.NewBus()
	l, err := ledger.New(context.Background(), SetupTestDB(t), ledger.Options{
		Owner:          cfg.Owner(),
		NumSeats:       cfg.NumSeats,
		ProposalPeriod: cfg.ProposalPeriod,
		Eligibility:    cfg.Eligibility,
		Clock:          clock,
		Bus:            bus,
		Logger:         DiscardLogger(),
	})
	if err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}
	return l, bus
}

// Weights converts integers into ledger weights
func Weights(values ...uint64) []uint256.Int {
	out := make([]uint256.Int, len(values))
	for i, v := range values {
		out[i].SetUint64(v)
	}
	return out
}

// ScenarioElection is the election of scenario 2: M1 receives 40 + 10
func ScenarioElection(id string) ledger.ElectionInput {
	return ledger.ElectionInput{
		ID:             id,
		CouncilMembers: []common.Address{M1, M2},
		Voters:         []common.Address{V1, V2, V3, V4, V5},
		Nominees:       []common.Address{M1, M2, N1, N2, M1},
		Weights:        Weights(40, 30, 20, 15, 10),
	}
}

// LogTestElection logs in as owner, failing the test on error
func LogTestElection(t *testing.T, l *ledger.Ledger, in ledger.ElectionInput) {
	t.Helper()
	if err := l.LogElection(context.Background(), Owner, in); err != nil {
		t.Fatalf("Failed to log test election: %v", err)
	}
}

// LogTestProposal opens a proposal starting at the clock's current time
func LogTestProposal(t *testing.T, l *ledger.Ledger, id string) {
	t.Helper()
	if _, err := l.LogProposal(context.Background(), Stranger, id, nil); err != nil {
		t.Fatalf("Failed to log test proposal: %v", err)
	}
}

// CallerHeaders returns authenticated caller headers for addr
func CallerHeaders(addr common.Address, salt string) map[string]string {
	return map[string]string{
		auth.HeaderCallerAddress: addr.Hex(),
		auth.HeaderCallerKey:     auth.GenerateCallerKey(addr, salt),
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
