// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"time"

	"github.com/danielhkuo/council-dilution/auth"
	"github.com/danielhkuo/council-dilution/cliparse"
	"github.com/danielhkuo/council-dilution/ledger"
	"github.com/danielhkuo/council-dilution/middleware"
	"github.com/danielhkuo/council-dilution/models"
)

type ProposalHandler struct {
	ledger *ledger.Ledger
	cfg    cliparse.Config
	now    func() time.Time
}

func NewProposalHandler(l *ledger.Ledger, cfg cliparse.Config) *ProposalHandler {
	return &ProposalHandler{ledger: l, cfg: cfg, now: time.Now}
}

func (h *ProposalHandler) proposalResponse(p models.Proposal) models.ProposalResponse {
	return models.ProposalResponse{
		ID:         p.ID,
		Start:      p.Start.Unix(),
		End:        p.End.Unix(),
		ElectionID: p.ElectionID,
		Active:     p.IsWithinWindow(h.now()),
	}
}

// LogProposal handles POST /proposals. Anyone may log, but the caller must
// still identify itself.
func (h *ProposalHandler) LogProposal(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromRequest(r, h.cfg.CallerKeySalt)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	var req models.LogProposalRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var start *time.Time
	if req.Start != nil {
		if *req.Start < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "start must be a non-negative unix time")
			return
		}
		s := time.Unix(*req.Start, 0)
		start = &s
	}

	p, err := h.ledger.LogProposal(r.Context(), caller, req.ID, start)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, h.proposalResponse(p))
}

// GetProposal handles GET /proposals/{id}
func (h *ProposalHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledger.Proposal(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, h.proposalResponse(p))
}

// ValidProposals handles POST /proposals/valid
func (h *ProposalHandler) ValidProposals(w http.ResponseWriter, r *http.Request) {
	var req models.ValidProposalsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ValidProposalsResponse{
		IDs: h.ledger.GetValidProposals(r.Context(), req.IDs),
	})
}

// DilutedWeight handles GET /proposals/{id}/members/{member}/weight
func (h *ProposalHandler) DilutedWeight(w http.ResponseWriter, r *http.Request) {
	member, ok := pathAddress(w, r, "member")
	if !ok {
		return
	}
	id := r.PathValue("id")

	ratio, err := h.ledger.GetDilutedWeightForProposal(r.Context(), id, member)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DilutedWeightResponse{
		ProposalID: id,
		Member:     member.Hex(),
		Ratio:      ratio.Dec(),
		Precision:  ledger.Precision.Dec(),
	})
}

// Receipt handles GET /proposals/{id}/members/{member}/receipt
func (h *ProposalHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	member, ok := pathAddress(w, r, "member")
	if !ok {
		return
	}
	id := r.PathValue("id")

	receipt, err := h.ledger.DilutionReceipt(r.Context(), id, member)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	resp := models.ReceiptResponse{
		ProposalID: id,
		Member:     member.Hex(),
		Exists:     receipt.Exists,
		Total:      receipt.Total.Dec(),
		Dilutors:   make([]models.ContributionView, len(receipt.Dilutors)),
	}
	for i, c := range receipt.Dilutors {
		resp.Dilutors[i] = models.ContributionView{
			Voter:  c.Voter.Hex(),
			Weight: c.Weight.Dec(),
		}
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// HasDiluted handles GET /proposals/{id}/voters/{voter}. With ?member= the
// answer is scoped to that council member.
func (h *ProposalHandler) HasDiluted(w http.ResponseWriter, r *http.Request) {
	voter, ok := pathAddress(w, r, "voter")
	if !ok {
		return
	}
	id := r.PathValue("id")
	resp := models.HasDilutedResponse{ProposalID: id, Voter: voter.Hex()}

	var err error
	if raw := r.URL.Query().Get("member"); raw != "" {
		member, perr := auth.ParseAddress(raw)
		if perr != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "member must be a 20-byte hex address")
			return
		}
		resp.Member = member.Hex()
		resp.Diluted, err = h.ledger.HasAddressDilutedForMember(r.Context(), id, member, voter)
	} else {
		resp.Diluted, err = h.ledger.HasAddressDilutedForProposal(r.Context(), id, voter)
	}
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
