// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/council-dilution/auth"
	"github.com/danielhkuo/council-dilution/cliparse"
	"github.com/danielhkuo/council-dilution/ledger"
	"github.com/danielhkuo/council-dilution/middleware"
	"github.com/danielhkuo/council-dilution/models"
)

// ConfigHandler serves the global configuration and its owner-only changes
type ConfigHandler struct {
	ledger *ledger.Ledger
	cfg    cliparse.Config
}

func NewConfigHandler(l *ledger.Ledger, cfg cliparse.Config) *ConfigHandler {
	return &ConfigHandler{ledger: l, cfg: cfg}
}

// GetConfig handles GET /config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	c, err := h.ledger.Config(r.Context())
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ConfigResponse{
		Owner:                 c.Owner.Hex(),
		NumSeats:              c.NumSeats,
		ProposalPeriodSeconds: int64(c.ProposalPeriod / time.Second),
		LatestElectionID:      c.LatestElectionID,
		Eligibility:           h.ledger.Eligibility(),
	})
}

// PutSeats handles PUT /config/seats
func (h *ConfigHandler) PutSeats(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromRequest(r, h.cfg.CallerKeySalt)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	var req models.ModifySeatsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	old, err := h.ledger.ModifySeats(r.Context(), caller, req.Seats)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ConfigChangeResponse{
		Old: strconv.FormatUint(old, 10),
		New: strconv.FormatUint(req.Seats, 10),
	})
}

// PutProposalPeriod handles PUT /config/proposal-period
func (h *ConfigHandler) PutProposalPeriod(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromRequest(r, h.cfg.CallerKeySalt)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	var req models.ModifyProposalPeriodRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	// Larger values would overflow a Duration
	if req.Seconds < 0 || req.Seconds > int64(1<<63-1)/int64(time.Second) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "seconds out of range")
		return
	}

	old, err := h.ledger.ModifyProposalPeriod(r.Context(), caller, time.Duration(req.Seconds)*time.Second)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ConfigChangeResponse{
		Old: strconv.FormatInt(int64(old/time.Second), 10),
		New: strconv.FormatInt(req.Seconds, 10),
	})
}

// PutOwner handles PUT /config/owner
func (h *ConfigHandler) PutOwner(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromRequest(r, h.cfg.CallerKeySalt)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	var req models.TransferOwnershipRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	next, err := auth.ParseAddress(req.Owner)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "owner must be a 20-byte hex address")
		return
	}

	old, err := h.ledger.TransferOwnership(r.Context(), caller, next)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	slog.Warn("ownership transferred via api", "old", old.Hex(), "new", next.Hex())

	middleware.JSONResponse(w, http.StatusOK, models.ConfigChangeResponse{
		Old: old.Hex(),
		New: next.Hex(),
	})
}
