// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/danielhkuo/council-dilution/auth"
	"github.com/danielhkuo/council-dilution/cliparse"
	"github.com/danielhkuo/council-dilution/ledger"
	"github.com/danielhkuo/council-dilution/middleware"
	"github.com/danielhkuo/council-dilution/models"
)

type ElectionHandler struct {
	ledger *ledger.Ledger
	cfg    cliparse.Config
}

func NewElectionHandler(l *ledger.Ledger, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{ledger: l, cfg: cfg}
}

// parseAddresses parses every entry or reports the first bad one
func parseAddresses(raw []string) ([]common.Address, string, bool) {
	out := make([]common.Address, len(raw))
	for i, s := range raw {
		addr, err := auth.ParseAddress(s)
		if err != nil {
			return nil, s, false
		}
		out[i] = addr
	}
	return out, "", true
}

// pathAddress reads an address path value, writing a 400 on failure
func pathAddress(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	addr, err := auth.ParseAddress(r.PathValue(name))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, name+" must be a 20-byte hex address")
		return common.Address{}, false
	}
	return addr, true
}

// LogElection handles POST /elections
func (h *ElectionHandler) LogElection(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromRequest(r, h.cfg.CallerKeySalt)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	var req models.LogElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	in := ledger.ElectionInput{ID: req.ID}
	var bad string
	var ok bool
	if in.CouncilMembers, bad, ok = parseAddresses(req.CouncilMembers); !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid council member address: "+bad)
		return
	}
	if in.Voters, bad, ok = parseAddresses(req.Voters); !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid voter address: "+bad)
		return
	}
	if in.Nominees, bad, ok = parseAddresses(req.Nominees); !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid nominee address: "+bad)
		return
	}

	in.Weights = make([]uint256.Int, len(req.Weights))
	for i, s := range req.Weights {
		weight, err := models.ParseWeight(s)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "invalid weight: "+s)
			return
		}
		in.Weights[i] = *weight
	}

	if err := h.ledger.LogElection(r.Context(), caller, in); err != nil {
		middleware.LedgerError(w, err)
		return
	}

	slog.Info("election logged via api", "election_id", req.ID, "caller", caller.Hex())

	middleware.JSONResponse(w, http.StatusCreated, models.LogElectionResponse{
		ElectionID: req.ID,
	})
}

// LatestElection handles GET /elections/latest
func (h *ElectionHandler) LatestElection(w http.ResponseWriter, r *http.Request) {
	id, err := h.ledger.LatestElectionID(r.Context())
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.LatestElectionResponse{ElectionID: id})
}

// GetElection handles GET /elections/{id}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	e, err := h.ledger.Election(r.Context(), id)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	resp := models.ElectionResponse{
		ID:             e.ID,
		CouncilMembers: make([]string, len(e.CouncilMembers)),
		Delegations:    make([]models.DelegationView, len(e.Delegations)),
		NomineeWeights: make([]models.NomineeWeightView, len(e.NomineeWeights)),
		LoggedAt:       e.LoggedAt,
	}
	for i, m := range e.CouncilMembers {
		resp.CouncilMembers[i] = m.Hex()
	}
	for i, d := range e.Delegations {
		resp.Delegations[i] = models.DelegationView{
			Voter:   d.Voter.Hex(),
			Nominee: d.Nominee.Hex(),
			Weight:  d.Weight.Dec(),
		}
	}
	for i, n := range e.NomineeWeights {
		resp.NomineeWeights[i] = models.NomineeWeightView{
			Nominee: n.Nominee.Hex(),
			Weight:  n.Weight.Dec(),
		}
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// VotedFor handles GET /elections/{id}/voters/{voter}
func (h *ElectionHandler) VotedFor(w http.ResponseWriter, r *http.Request) {
	voter, ok := pathAddress(w, r, "voter")
	if !ok {
		return
	}
	id := r.PathValue("id")

	nominee, err := h.ledger.ElectionMemberVotedFor(r.Context(), id, voter)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VotedForResponse{
		ElectionID: id,
		Voter:      voter.Hex(),
		Nominee:    nominee.Hex(),
	})
}

// DelegatedWeight handles GET /weights/delegated?voter=&nominee=
func (h *ElectionHandler) DelegatedWeight(w http.ResponseWriter, r *http.Request) {
	voter, err := auth.ParseAddress(r.URL.Query().Get("voter"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter must be a 20-byte hex address")
		return
	}
	nominee, err := auth.ParseAddress(r.URL.Query().Get("nominee"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "nominee must be a 20-byte hex address")
		return
	}

	weight, err := h.ledger.LatestDelegatedVoteWeight(r.Context(), voter, nominee)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.WeightResponse{
		Voter:   voter.Hex(),
		Nominee: nominee.Hex(),
		Weight:  weight.Dec(),
	})
}

// VotingWeight handles GET /weights/{nominee}
func (h *ElectionHandler) VotingWeight(w http.ResponseWriter, r *http.Request) {
	nominee, ok := pathAddress(w, r, "nominee")
	if !ok {
		return
	}

	weight, err := h.ledger.LatestVotingWeight(r.Context(), nominee)
	if err != nil {
		middleware.LedgerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.WeightResponse{
		Nominee: nominee.Hex(),
		Weight:  weight.Dec(),
	})
}
