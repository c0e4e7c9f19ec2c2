// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"github.com/GianlucaGuarini/go-observable"
)

// AllEvents subscribes to every event type
const AllEvents Type = "all"

// Bus fans committed events out to in-process subscribers
type Bus struct {
	observable *observable.Observable
}

func NewBus() *Bus {
	return &Bus{observable: observable.New()}
}

// Subscribe registers fn for events of type t (or AllEvents) and returns a
// function that removes the subscription
func (b *Bus) Subscribe(t Type, fn func(Event)) (unsubscribe func()) {
	callback := func(args ...interface{}) {
		if len(args) == 0 {
			return
		}
		if e, ok := args[0].(Event); ok {
			fn(e)
		}
	}
	b.observable.On(string(t), callback)
	return func() {
		b.observable.Off(string(t), callback)
	}
}

// Publish delivers e to subscribers of its type and of AllEvents
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.observable.Trigger(string(e.Type), e)
	b.observable.Trigger(string(AllEvents), e)
}
