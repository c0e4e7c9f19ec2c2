// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package events defines the notifications emitted by the ledger and the
in-process bus that delivers them.

# Events

Every state change emits one Event with a UUID, a sequence number, a type and
a JSON payload:

	ElectionLogged(election_id, council_members, voters, nominees, weights)
	ProposalLogged(proposal_id, start, end)
	DilutionCreated(proposal_id, member, previous_total, total)
	DilutionModified(proposal_id, member, previous_total, total)
	SeatsModified(old, new)
	ProposalPeriodModified(old, new)
	OwnershipTransferred(old, new)

The ledger stores events in the same transaction as the change that caused
them, so the stored sequence never contains an event for a rolled-back call.

# Bus

Bus publishes committed events to subscribers:

	bus := events.NewBus()
	unsubscribe := bus.Subscribe(events.DilutionCreatedType, func(e events.Event) {
		var p events.DilutionChanged
		_ = e.Decode(&p)
	})
	defer unsubscribe()

Subscribe to events.AllEvents to receive every type.
*/
package events
