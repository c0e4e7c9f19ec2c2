// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/council-dilution/auth"
	"github.com/danielhkuo/council-dilution/cliparse"
	"github.com/danielhkuo/council-dilution/ledger"
	"github.com/danielhkuo/council-dilution/middleware"
	"github.com/danielhkuo/council-dilution/models"
)

type DilutionHandler struct {
	ledger *ledger.Ledger
	cfg    cliparse.Config
}

func NewDilutionHandler(l *ledger.Ledger, cfg cliparse.Config) *DilutionHandler {
	return &DilutionHandler{ledger: l, cfg: cfg}
}

func dilutionResponse(c models.DilutionChange) models.DilutionResponse {
	return models.DilutionResponse{
		ProposalID:    c.ProposalID,
		Member:        c.Member.Hex(),
		Voter:         c.Voter.Hex(),
		PreviousTotal: c.PreviousTotal.Dec(),
		Total:         c.Total.Dec(),
	}
}

// Dilute handles POST /proposals/{id}/dilutions/{member}
func (h *DilutionHandler) Dilute(w http.ResponseWriter, r *http.Request) {
	voter, err := auth.CallerFromRequest(r, h.cfg.CallerKeySalt)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}
	member, ok := pathAddress(w, r, "member")
	if !ok {
		return
	}

	change, err := h.ledger.Dilute(r.Context(), voter, r.PathValue("id"), member)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, dilutionResponse(change))
}

// Invalidate handles DELETE /proposals/{id}/dilutions/{member}
func (h *DilutionHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	voter, err := auth.CallerFromRequest(r, h.cfg.CallerKeySalt)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}
	member, ok := pathAddress(w, r, "member")
	if !ok {
		return
	}

	change, err := h.ledger.InvalidateDilution(r.Context(), voter, r.PathValue("id"), member)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, dilutionResponse(change))
}
