// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/council-dilution/cliparse"
	"github.com/danielhkuo/council-dilution/models"
	"github.com/danielhkuo/council-dilution/testutil"
)

func TestLogProposal(t *testing.T) {
	l, clock, cfg := setupLedger(t)
	handler := NewProposalHandler(l, cfg)
	handler.now = clock.Now

	req := testutil.MakeRequest("POST", "/proposals", models.LogProposalRequest{ID: "P1"},
		testutil.CallerHeaders(testutil.V1, cfg.CallerKeySalt))
	w := httptest.NewRecorder()
	handler.LogProposal(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.ProposalResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.ID != "P1" {
		t.Errorf("Expected id P1, got %s", resp.ID)
	}
	if resp.Start != testutil.Epoch.Unix() {
		t.Errorf("Expected start %d, got %d", testutil.Epoch.Unix(), resp.Start)
	}
	if resp.End-resp.Start != int64(cliparse.DefaultProposalPeriod/time.Second) {
		t.Errorf("Expected a %v window, got %d seconds", cliparse.DefaultProposalPeriod, resp.End-resp.Start)
	}
	if !resp.Active {
		t.Error("Expected proposal to be active")
	}
}

func TestLogProposal_Errors(t *testing.T) {
	l, _, cfg := setupLedger(t)
	testutil.LogTestProposal(t, l, "P1")
	handler := NewProposalHandler(l, cfg)
	caller := testutil.CallerHeaders(testutil.V1, cfg.CallerKeySalt)
	negative := int64(-5)

	tests := []struct {
		name     string
		body     interface{}
		headers  map[string]string
		wantCode int
	}{
		{"missing caller", models.LogProposalRequest{ID: "P2"}, nil, http.StatusUnauthorized},
		{"empty id", models.LogProposalRequest{}, caller, http.StatusBadRequest},
		{"duplicate id", models.LogProposalRequest{ID: "P1"}, caller, http.StatusConflict},
		{"negative start", models.LogProposalRequest{ID: "P3", Start: &negative}, caller, http.StatusBadRequest},
		{"invalid json", []int{1, 2}, caller, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.LogProposal(w, testutil.MakeRequest("POST", "/proposals", tt.body, tt.headers))
			testutil.AssertStatus(t, w, tt.wantCode)
		})
	}
}

func TestGetProposal(t *testing.T) {
	l, clock, cfg := setupLedger(t)
	handler := NewProposalHandler(l, cfg)
	handler.now = clock.Now

	start := int64(1700000000)
	w := httptest.NewRecorder()
	handler.LogProposal(w, testutil.MakeRequest("POST", "/proposals",
		models.LogProposalRequest{ID: "P-old", Start: &start},
		testutil.CallerHeaders(testutil.V1, cfg.CallerKeySalt)))
	testutil.AssertStatus(t, w, http.StatusCreated)

	req := testutil.MakeRequest("GET", "/proposals/P-old", nil, nil)
	req.SetPathValue("id", "P-old")
	w = httptest.NewRecorder()
	handler.GetProposal(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ProposalResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Start != start {
		t.Errorf("Expected start %d, got %d", start, resp.Start)
	}
	if resp.Active {
		t.Error("Expected a past proposal to be inactive")
	}

	req = testutil.MakeRequest("GET", "/proposals/nope", nil, nil)
	req.SetPathValue("id", "nope")
	w = httptest.NewRecorder()
	handler.GetProposal(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestValidProposals(t *testing.T) {
	l, _, cfg := setupLedger(t)
	testutil.LogTestProposal(t, l, "P1")
	handler := NewProposalHandler(l, cfg)

	w := httptest.NewRecorder()
	handler.ValidProposals(w, testutil.MakeRequest("POST", "/proposals/valid",
		models.ValidProposalsRequest{IDs: []string{"P1", "P2"}}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ValidProposalsResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.IDs) != 2 || resp.IDs[0] != "P1" || resp.IDs[1] != "" {
		t.Errorf("Expected [P1 \"\"], got %q", resp.IDs)
	}
}

func TestDilutedWeightAndReceipt(t *testing.T) {
	l, _, cfg := setupLedger(t)
	testutil.LogTestElection(t, l, testutil.ScenarioElection("E1"))
	testutil.LogTestProposal(t, l, "P1")
	if _, err := l.Dilute(t.Context(), testutil.V1, "P1", testutil.M1); err != nil {
		t.Fatalf("Failed to dilute: %v", err)
	}
	handler := NewProposalHandler(l, cfg)

	req := testutil.MakeRequest("GET", "/proposals/P1/members/x/weight", nil, nil)
	req.SetPathValue("id", "P1")
	req.SetPathValue("member", testutil.M1.Hex())
	w := httptest.NewRecorder()
	handler.DilutedWeight(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var weight models.DilutedWeightResponse
	testutil.AssertJSON(t, w, &weight)
	if weight.Ratio != "200000000000000000" {
		t.Errorf("Expected ratio 2e17, got %s", weight.Ratio)
	}
	if weight.Precision != "1000000000000000000" {
		t.Errorf("Expected precision 1e18, got %s", weight.Precision)
	}

	req = testutil.MakeRequest("GET", "/proposals/P1/members/x/receipt", nil, nil)
	req.SetPathValue("id", "P1")
	req.SetPathValue("member", testutil.M1.Hex())
	w = httptest.NewRecorder()
	handler.Receipt(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var receipt models.ReceiptResponse
	testutil.AssertJSON(t, w, &receipt)
	if !receipt.Exists || receipt.Total != "40" {
		t.Errorf("Unexpected receipt: %+v", receipt)
	}
	if len(receipt.Dilutors) != 1 || receipt.Dilutors[0].Voter != testutil.V1.Hex() || receipt.Dilutors[0].Weight != "40" {
		t.Errorf("Unexpected dilutors: %+v", receipt.Dilutors)
	}

	// Off-roster member
	req = testutil.MakeRequest("GET", "/proposals/P1/members/x/weight", nil, nil)
	req.SetPathValue("id", "P1")
	req.SetPathValue("member", testutil.N1.Hex())
	w = httptest.NewRecorder()
	handler.DilutedWeight(w, req)
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestHasDiluted(t *testing.T) {
	l, _, cfg := setupLedger(t)
	testutil.LogTestElection(t, l, testutil.ScenarioElection("E1"))
	testutil.LogTestProposal(t, l, "P1")
	if _, err := l.Dilute(t.Context(), testutil.V1, "P1", testutil.M1); err != nil {
		t.Fatalf("Failed to dilute: %v", err)
	}
	handler := NewProposalHandler(l, cfg)

	tests := []struct {
		name     string
		voter    string
		query    string
		wantCode int
		want     bool
	}{
		{"any member", testutil.V1.Hex(), "", http.StatusOK, true},
		{"diluted member", testutil.V1.Hex(), "?member=" + testutil.M1.Hex(), http.StatusOK, true},
		{"other member", testutil.V1.Hex(), "?member=" + testutil.M2.Hex(), http.StatusOK, false},
		{"other voter", testutil.V2.Hex(), "", http.StatusOK, false},
		{"bad member", testutil.V1.Hex(), "?member=zz", http.StatusBadRequest, false},
		{"bad voter", "zz", "", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("GET", "/proposals/P1/voters/x"+tt.query, nil, nil)
			req.SetPathValue("id", "P1")
			req.SetPathValue("voter", tt.voter)
			w := httptest.NewRecorder()
			handler.HasDiluted(w, req)

			testutil.AssertStatus(t, w, tt.wantCode)
			if tt.wantCode != http.StatusOK {
				return
			}

			var resp models.HasDilutedResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Diluted != tt.want {
				t.Errorf("Expected diluted=%v, got %v", tt.want, resp.Diluted)
			}
		})
	}
}
