// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/council-dilution/ledger"
	"github.com/danielhkuo/council-dilution/models"
	"github.com/danielhkuo/council-dilution/testutil"
)

// setupDilution logs the repeated-nominee election and opens P1 now
func setupDilution(t *testing.T) (*ledger.Ledger, *testutil.FakeClock) {
	t.Helper()
	l, clock := newLedger(t)
	testutil.LogTestElection(t, l, testutil.ScenarioElection("E1"))
	testutil.LogTestProposal(t, l, "P1")
	return l, clock
}

func TestDilution_Scenarios(t *testing.T) {
	l, _ := setupDilution(t)

	require.Equal(t, "1000000000000000000", ratio(t, l, "P1", testutil.M1))

	// Scenario 3: V1 dilutes 40 of 50
	change, err := l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	require.Equal(t, "0", change.PreviousTotal.Dec())
	require.Equal(t, "40", change.Total.Dec())
	require.Equal(t, "200000000000000000", ratio(t, l, "P1", testutil.M1))

	// Scenario 4: V5 adds 10
	change, err = l.Dilute(ctx, testutil.V5, "P1", testutil.M1)
	require.NoError(t, err)
	require.Equal(t, "40", change.PreviousTotal.Dec())
	require.Equal(t, "50", change.Total.Dec())
	require.Equal(t, "0", ratio(t, l, "P1", testutil.M1))

	// Scenario 5: V1 reverses
	change, err = l.InvalidateDilution(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	require.Equal(t, "50", change.PreviousTotal.Dec())
	require.Equal(t, "10", change.Total.Dec())
	require.Equal(t, uint64(10), totalDilution(t, l, "P1", testutil.M1))
	require.Equal(t, "800000000000000000", ratio(t, l, "P1", testutil.M1))

	// Scenario 6: N1 is off the roster, so the roster check fires first
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.N1)
	require.ErrorIs(t, err, ledger.ErrNotCouncilMember)
	require.Equal(t, ledger.KindState, ledger.KindOf(err))
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M2)
	require.ErrorIs(t, err, ledger.ErrNoDelegatedWeight)
	require.Equal(t, ledger.KindState, ledger.KindOf(err))
}

func TestDilute_NoDelegatedWeightToElectedNominee(t *testing.T) {
	l, _ := newLedger(t)
	// N1 is elected but V3 gave it nothing
	testutil.LogTestElection(t, l, ledger.ElectionInput{
		ID:             "E1",
		CouncilMembers: addresses(testutil.M1, testutil.N1),
		Voters:         addresses(testutil.V1, testutil.V2),
		Nominees:       addresses(testutil.M1, testutil.N1),
		Weights:        testutil.Weights(40, 20),
	})
	testutil.LogTestProposal(t, l, "P1")

	_, err := l.Dilute(ctx, testutil.V3, "P1", testutil.N1)
	require.ErrorIs(t, err, ledger.ErrNoDelegatedWeight)
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.N1)
	require.ErrorIs(t, err, ledger.ErrNoDelegatedWeight)
}

func TestDilute_Preconditions(t *testing.T) {
	tests := []struct {
		name     string
		proposal string
		voter    common.Address
		member   common.Address
		want     error
	}{
		{"unknown proposal", "nope", testutil.V1, testutil.M1, ledger.ErrProposalNotFound},
		{"null member", "P1", testutil.V1, models.NullAddress, ledger.ErrNullAddress},
		{"not on roster", "P1", testutil.V3, testutil.N1, ledger.ErrNotCouncilMember},
		{"absent voter", "P1", testutil.Stranger, testutil.M1, ledger.ErrNoDelegatedWeight},
		{"delegated elsewhere", "P1", testutil.V2, testutil.M1, ledger.ErrNoDelegatedWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := setupDilution(t)
			_, err := l.Dilute(ctx, tt.voter, tt.proposal, tt.member)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDilute_AlreadyDiluted(t *testing.T) {
	l, _ := setupDilution(t)

	_, err := l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrAlreadyDiluted)
	require.Equal(t, uint64(40), totalDilution(t, l, "P1", testutil.M1))

	// The same voter may dilute on another proposal
	testutil.LogTestProposal(t, l, "P2")
	_, err = l.Dilute(ctx, testutil.V1, "P2", testutil.M1)
	require.NoError(t, err)
	require.Equal(t, uint64(40), totalDilution(t, l, "P2", testutil.M1))
}

func TestDilution_WindowEnforcement(t *testing.T) {
	l, clock := newLedger(t)
	testutil.LogTestElection(t, l, testutil.ScenarioElection("E1"))

	start := clock.Now().Add(time.Hour)
	_, err := l.LogProposal(ctx, testutil.Stranger, "P1", &start)
	require.NoError(t, err)
	end := start.Add(259200 * time.Second)

	// Before start
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrOutsideWindow)
	_, err = l.InvalidateDilution(ctx, testutil.V1, "P1", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrOutsideWindow)

	// Exactly at start
	clock.Set(start)
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)

	// Exactly at end
	clock.Set(end)
	_, err = l.InvalidateDilution(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	_, err = l.Dilute(ctx, testutil.V5, "P1", testutil.M1)
	require.NoError(t, err)

	// After end
	clock.Set(end.Add(time.Second))
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrOutsideWindow)
	_, err = l.InvalidateDilution(ctx, testutil.V5, "P1", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrOutsideWindow)

	// The receipt outlives the window
	require.Equal(t, uint64(10), totalDilution(t, l, "P1", testutil.M1))
	require.Equal(t, "800000000000000000", ratio(t, l, "P1", testutil.M1))
}

func TestInvalidateDilution_Preconditions(t *testing.T) {
	l, _ := setupDilution(t)

	_, err := l.InvalidateDilution(ctx, testutil.V1, "nope", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrProposalNotFound)

	_, err = l.InvalidateDilution(ctx, testutil.V1, "P1", models.NullAddress)
	require.ErrorIs(t, err, ledger.ErrNullAddress)

	_, err = l.InvalidateDilution(ctx, testutil.V1, "P1", testutil.N1)
	require.ErrorIs(t, err, ledger.ErrNotCouncilMember)

	_, err = l.InvalidateDilution(ctx, testutil.V1, "P1", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrReceiptNotFound)
	require.Equal(t, ledger.KindNotFound, ledger.KindOf(err))

	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)

	_, err = l.InvalidateDilution(ctx, testutil.V5, "P1", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrNoContribution)

	_, err = l.InvalidateDilution(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	_, err = l.InvalidateDilution(ctx, testutil.V1, "P1", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrNoContribution)
}

func TestDilution_ExactReversal(t *testing.T) {
	l, _ := setupDilution(t)

	_, err := l.Dilute(ctx, testutil.V5, "P1", testutil.M1)
	require.NoError(t, err)

	beforeTotal := totalDilution(t, l, "P1", testutil.M1)
	beforeContribution := contribution(t, l, "P1", testutil.M1, testutil.V1)

	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	require.Equal(t, uint64(40), contribution(t, l, "P1", testutil.M1, testutil.V1))

	_, err = l.InvalidateDilution(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)

	require.Equal(t, beforeTotal, totalDilution(t, l, "P1", testutil.M1))
	require.Equal(t, beforeContribution, contribution(t, l, "P1", testutil.M1, testutil.V1))

	// A reversed voter may dilute again
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	require.Equal(t, uint64(50), totalDilution(t, l, "P1", testutil.M1))
}

func TestDilution_DilutorSetSwapAndTruncate(t *testing.T) {
	l, _ := newLedger(t)
	testutil.LogTestElection(t, l, ledger.ElectionInput{
		ID:             "E1",
		CouncilMembers: addresses(testutil.M1, testutil.M2),
		Voters:         addresses(testutil.V1, testutil.V2, testutil.V3, testutil.V4),
		Nominees:       addresses(testutil.M1, testutil.M1, testutil.M1, testutil.M1),
		Weights:        testutil.Weights(1, 2, 3, 4),
	})
	testutil.LogTestProposal(t, l, "P1")

	for _, v := range addresses(testutil.V1, testutil.V2, testutil.V3, testutil.V4) {
		_, err := l.Dilute(ctx, v, "P1", testutil.M1)
		require.NoError(t, err)
	}

	// Removing the first moves the last into its slot
	_, err := l.InvalidateDilution(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	set, err := l.Dilutors(ctx, "P1", testutil.M1)
	require.NoError(t, err)
	require.Equal(t, addresses(testutil.V4, testutil.V2, testutil.V3), set)

	// Removing the last just truncates
	_, err = l.InvalidateDilution(ctx, testutil.V3, "P1", testutil.M1)
	require.NoError(t, err)
	set, err = l.Dilutors(ctx, "P1", testutil.M1)
	require.NoError(t, err)
	require.Equal(t, addresses(testutil.V4, testutil.V2), set)

	// Re-adding appends
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)

	receipt, err := l.DilutionReceipt(ctx, "P1", testutil.M1)
	require.NoError(t, err)
	require.True(t, receipt.Exists)
	require.Equal(t, "7", receipt.Total.Dec())
	require.Len(t, receipt.Dilutors, 3)

	// Total equals the sum of contributions of the set
	var sum uint64
	seen := map[common.Address]bool{}
	for _, c := range receipt.Dilutors {
		require.False(t, seen[c.Voter], "duplicate dilutor %s", c.Voter.Hex())
		seen[c.Voter] = true
		require.False(t, c.Weight.IsZero())
		sum += c.Weight.Uint64()
	}
	require.Equal(t, receipt.Total.Uint64(), sum)
	require.Equal(t, testutil.V1, receipt.Dilutors[2].Voter)
}

func TestDilution_Bound(t *testing.T) {
	l, _ := setupDilution(t)

	voters := addresses(testutil.V1, testutil.V2, testutil.V3, testutil.V4, testutil.V5)
	for _, v := range voters {
		for _, m := range addresses(testutil.M1, testutil.M2) {
			_, _ = l.Dilute(ctx, v, "P1", m)
			require.LessOrEqual(t, totalDilution(t, l, "P1", m), votingWeight(t, l, m))
		}
	}
	require.Equal(t, uint64(50), totalDilution(t, l, "P1", testutil.M1))
	require.Equal(t, uint64(30), totalDilution(t, l, "P1", testutil.M2))
}

func TestHasAddressDiluted(t *testing.T) {
	l, _ := setupDilution(t)

	diluted, err := l.HasAddressDilutedForProposal(ctx, "P1", testutil.V1)
	require.NoError(t, err)
	require.False(t, diluted)

	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)

	diluted, err = l.HasAddressDilutedForProposal(ctx, "P1", testutil.V1)
	require.NoError(t, err)
	require.True(t, diluted)

	diluted, err = l.HasAddressDilutedForMember(ctx, "P1", testutil.M1, testutil.V1)
	require.NoError(t, err)
	require.True(t, diluted)
	diluted, err = l.HasAddressDilutedForMember(ctx, "P1", testutil.M2, testutil.V1)
	require.NoError(t, err)
	require.False(t, diluted)

	diluted, err = l.HasAddressDilutedForProposal(ctx, "nope", testutil.V1)
	require.NoError(t, err)
	require.False(t, diluted)

	_, err = l.InvalidateDilution(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	diluted, err = l.HasAddressDilutedForProposal(ctx, "P1", testutil.V1)
	require.NoError(t, err)
	require.False(t, diluted)
}

func TestDilutionReceipt_Missing(t *testing.T) {
	l, _ := setupDilution(t)

	receipt, err := l.DilutionReceipt(ctx, "P1", testutil.M1)
	require.NoError(t, err)
	require.False(t, receipt.Exists)
	require.True(t, receipt.Total.IsZero())
	require.Empty(t, receipt.Dilutors)

	// Receipts persist once created, even when emptied
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	_, err = l.InvalidateDilution(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	receipt, err = l.DilutionReceipt(ctx, "P1", testutil.M1)
	require.NoError(t, err)
	require.True(t, receipt.Exists)
	require.True(t, receipt.Total.IsZero())
	require.Empty(t, receipt.Dilutors)
}

func TestGetDilutedWeight_Errors(t *testing.T) {
	l, _ := setupDilution(t)

	_, err := l.GetDilutedWeightForProposal(ctx, "nope", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrProposalNotFound)

	_, err = l.GetDilutedWeightForProposal(ctx, "P1", testutil.N1)
	require.ErrorIs(t, err, ledger.ErrNotCouncilMember)
}

func TestGetDilutedWeight_ZeroWeightMember(t *testing.T) {
	l, _ := newLedger(t)
	// M2 sits on the council with no delegated weight
	testutil.LogTestElection(t, l, ledger.ElectionInput{
		ID:             "E1",
		CouncilMembers: addresses(testutil.M1, testutil.M2),
		Voters:         addresses(testutil.V1),
		Nominees:       addresses(testutil.M1),
		Weights:        testutil.Weights(40),
	})
	testutil.LogTestProposal(t, l, "P1")

	require.Equal(t, "0", ratio(t, l, "P1", testutil.M2))
}

func TestEligibility_LatestFollowsNewElections(t *testing.T) {
	l, _ := setupDilution(t)

	_, err := l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)

	// A new election while P1 is open changes who may dilute
	testutil.LogTestElection(t, l, ledger.ElectionInput{
		ID:             "E2",
		CouncilMembers: addresses(testutil.M1, testutil.N1),
		Voters:         addresses(testutil.V2, testutil.V3),
		Nominees:       addresses(testutil.M1, testutil.N1),
		Weights:        testutil.Weights(25, 5),
	})

	_, err = l.Dilute(ctx, testutil.V5, "P1", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrNoDelegatedWeight)
	_, err = l.Dilute(ctx, testutil.V2, "P1", testutil.M1)
	require.NoError(t, err)

	// 65 diluted against a latest weight of 25 saturates at zero
	require.Equal(t, uint64(65), totalDilution(t, l, "P1", testutil.M1))
	require.Equal(t, "0", ratio(t, l, "P1", testutil.M1))
}

func TestEligibility_Pinned(t *testing.T) {
	clock := testutil.NewFakeClock()
	cfg := testutil.GetTestConfig()
	cfg.Eligibility = models.EligibilityPinned
	l, _ := testutil.NewTestLedger(t, cfg, clock)

	// Proposals logged before any election cannot be diluted
	testutil.LogTestProposal(t, l, "P0")
	testutil.LogTestElection(t, l, testutil.ScenarioElection("E1"))
	_, err := l.Dilute(ctx, testutil.V1, "P0", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrNoElection)
	_, err = l.GetDilutedWeightForProposal(ctx, "P0", testutil.M1)
	require.ErrorIs(t, err, ledger.ErrNoElection)

	testutil.LogTestProposal(t, l, "P1")
	p, err := l.Proposal(ctx, "P1")
	require.NoError(t, err)
	require.Equal(t, "E1", p.ElectionID)

	testutil.LogTestElection(t, l, ledger.ElectionInput{
		ID:             "E2",
		CouncilMembers: addresses(testutil.N1, testutil.N2),
		Voters:         addresses(testutil.V1),
		Nominees:       addresses(testutil.N1),
		Weights:        testutil.Weights(1),
	})

	// P1 stays bound to E1
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.M1)
	require.NoError(t, err)
	require.Equal(t, "200000000000000000", ratio(t, l, "P1", testutil.M1))
	_, err = l.Dilute(ctx, testutil.V1, "P1", testutil.N1)
	require.ErrorIs(t, err, ledger.ErrNotCouncilMember)
}
