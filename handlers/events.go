// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/danielhkuo/council-dilution/events"
	"github.com/danielhkuo/council-dilution/ledger"
	"github.com/danielhkuo/council-dilution/middleware"
)

type EventHandler struct {
	ledger *ledger.Ledger
}

func NewEventHandler(l *ledger.Ledger) *EventHandler {
	return &EventHandler{ledger: l}
}

type eventsResponse struct {
	Events []events.Event `json:"events"`
	// Next is the cursor for the following page
	Next int64 `json:"next"`
}

// ListEvents handles GET /events?after=&limit=
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var after int64
	if raw := q.Get("after"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "after must be a non-negative integer")
			return
		}
		after = v
	}

	var limit int
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}

	list, err := h.ledger.Events(r.Context(), after, limit)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	next := after
	if len(list) > 0 {
		next = list[len(list)-1].Sequence
	}
	middleware.JSONResponse(w, http.StatusOK, eventsResponse{Events: list, Next: next})
}
