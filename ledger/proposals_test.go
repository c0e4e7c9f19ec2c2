// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/council-dilution/events"
	"github.com/danielhkuo/council-dilution/ledger"
	"github.com/danielhkuo/council-dilution/testutil"
)

func TestLogProposal(t *testing.T) {
	l, clock := newLedger(t)

	// Any caller may log
	p, err := l.LogProposal(ctx, testutil.Stranger, "P1", nil)
	require.NoError(t, err)
	require.Equal(t, "P1", p.ID)
	require.True(t, p.Start.Equal(clock.Now()))
	require.True(t, p.End.Equal(clock.Now().Add(259200*time.Second)))
	require.Empty(t, p.ElectionID)

	start := time.Unix(1700000000, 0)
	p, err = l.LogProposal(ctx, testutil.V1, "P2", &start)
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), p.Start.Unix())
	require.Equal(t, int64(1700000000+259200), p.End.Unix())

	stored, err := l.Events(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	var payload events.ProposalLogged
	require.NoError(t, stored[1].Decode(&payload))
	require.Equal(t, events.ProposalLogged{ProposalID: "P2", Start: 1700000000, End: 1700000000 + 259200}, payload)
}

func TestLogProposal_Validation(t *testing.T) {
	l, _ := newLedger(t)

	_, err := l.LogProposal(ctx, testutil.V1, "", nil)
	require.ErrorIs(t, err, ledger.ErrEmptyProposalID)

	testutil.LogTestProposal(t, l, "P1")
	start := time.Unix(1, 0)
	_, err = l.LogProposal(ctx, testutil.V1, "P1", &start)
	require.ErrorIs(t, err, ledger.ErrDuplicateProposalID)
	require.Equal(t, "proposal id is not unique", err.Error())

	// The first proposal is untouched
	p, err := l.Proposal(ctx, "P1")
	require.NoError(t, err)
	require.NotEqual(t, int64(1), p.Start.Unix())

	far := time.Unix(math.MaxInt64-10, 0)
	_, err = l.LogProposal(ctx, testutil.V1, "P-far", &far)
	require.ErrorIs(t, err, ledger.ErrOverflow)
	_, err = l.Proposal(ctx, "P-far")
	require.ErrorIs(t, err, ledger.ErrProposalNotFound)
}

func TestProposal_RecordsLatestElection(t *testing.T) {
	l, _ := newLedger(t)
	testutil.LogTestElection(t, l, testutil.ScenarioElection("E1"))
	testutil.LogTestProposal(t, l, "P1")

	p, err := l.Proposal(ctx, "P1")
	require.NoError(t, err)
	require.Equal(t, "E1", p.ElectionID)
}

func TestGetValidProposals(t *testing.T) {
	l, _ := newLedger(t)
	testutil.LogTestProposal(t, l, "P1")
	testutil.LogTestProposal(t, l, "P3")

	got := l.GetValidProposals(ctx, []string{"P3", "P2", "", "P1", "P1"})
	require.Equal(t, []string{"P3", "", "", "P1", "P1"}, got)

	require.Empty(t, l.GetValidProposals(ctx, nil))
}

func TestIsWithinWindow(t *testing.T) {
	l, clock := newLedger(t)
	testutil.LogTestProposal(t, l, "P1")
	p, err := l.Proposal(ctx, "P1")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", p.Start.Add(-time.Second), false},
		{"at start", p.Start, true},
		{"inside", clock.Now().Add(time.Hour), true},
		{"at end", p.End, true},
		{"after end", p.End.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := l.IsWithinWindow(ctx, "P1", tt.now)
			require.NoError(t, err)
			require.Equal(t, tt.want, ok)
		})
	}

	ok, err := l.IsWithinWindow(ctx, "nope", clock.Now())
	require.NoError(t, err)
	require.False(t, ok)
}
