// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger records council elections and proposals and tracks how much
of each council member's electorate dilutes the member on a proposal.

# Ledger

A Ledger is an explicit context object over one database:

	l, err := ledger.New(ctx, conn, ledger.Options{
		Owner:          owner,
		NumSeats:       2,
		ProposalPeriod: 72 * time.Hour,
		Bus:            bus,
	})

Owner, seats and period seed the stored configuration the first time only.
Every mutating call takes the write lock, runs in a single transaction and
either commits all of its writes and events or none of them.

# Elections

The owner logs externally tallied outcomes:

	err := l.LogElection(ctx, owner, ledger.ElectionInput{
		ID:             "E1",
		CouncilMembers: []common.Address{m1, m2},
		Voters:         []common.Address{v1, v2},
		Nominees:       []common.Address{m1, m2},
		Weights:        []uint256.Int{w1, w2},
	})

Elections are append-only and addressed by id; the last one logged is the
latest election. Repeated (voter, nominee) pairs sum.

# Proposals

Anyone may log a proposal. Its window is [start, start + period] with the
period fixed at logging time:

	p, err := l.LogProposal(ctx, caller, "P1", nil) // starts now

# Dilution

Inside the window, a voter who delegated weight to a council member may
dilute that member by the whole delegated weight, and may reverse it:

	change, err := l.Dilute(ctx, voter, "P1", m1)
	change, err := l.InvalidateDilution(ctx, voter, "P1", m1)

The published ratio is (weight - diluted) * Precision / weight:

	ratio, err := l.GetDilutedWeightForProposal(ctx, "P1", m1)

Eligibility follows the latest election by default. With
models.EligibilityPinned it follows the election that was latest when the
proposal was logged.

# Errors

Failures are *Error values with a Kind and a stable Code. Compare with
errors.Is against the exported sentinels, or use KindOf and CodeOf.
*/
package ledger
