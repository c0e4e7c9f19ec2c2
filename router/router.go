// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/council-dilution/cliparse"
	"github.com/danielhkuo/council-dilution/handlers"
	"github.com/danielhkuo/council-dilution/ledger"
	"github.com/danielhkuo/council-dilution/middleware"
)

func NewRouter(l *ledger.Ledger, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(l, cfg)
	proposalHandler := handlers.NewProposalHandler(l, cfg)
	dilutionHandler := handlers.NewDilutionHandler(l, cfg)
	configHandler := handlers.NewConfigHandler(l, cfg)
	eventHandler := handlers.NewEventHandler(l)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Elections (logging is owner only)
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.LogElection))
	mux.HandleFunc("GET /elections/latest", middleware.WithLogging(electionHandler.LatestElection))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("GET /elections/{id}/voters/{voter}", middleware.WithLogging(electionHandler.VotedFor))
	mux.HandleFunc("GET /weights/delegated", middleware.WithLogging(electionHandler.DelegatedWeight))
	mux.HandleFunc("GET /weights/{nominee}", middleware.WithLogging(electionHandler.VotingWeight))

	// Proposals (public)
	mux.HandleFunc("POST /proposals", middleware.WithLogging(proposalHandler.LogProposal))
	mux.HandleFunc("POST /proposals/valid", middleware.WithLogging(proposalHandler.ValidProposals))
	mux.HandleFunc("GET /proposals/{id}", middleware.WithLogging(proposalHandler.GetProposal))
	mux.HandleFunc("GET /proposals/{id}/members/{member}/weight", middleware.WithLogging(proposalHandler.DilutedWeight))
	mux.HandleFunc("GET /proposals/{id}/members/{member}/receipt", middleware.WithLogging(proposalHandler.Receipt))
	mux.HandleFunc("GET /proposals/{id}/voters/{voter}", middleware.WithLogging(proposalHandler.HasDiluted))

	// Dilution (caller is the voter)
	mux.HandleFunc("POST /proposals/{id}/dilutions/{member}", middleware.WithLogging(dilutionHandler.Dilute))
	mux.HandleFunc("DELETE /proposals/{id}/dilutions/{member}", middleware.WithLogging(dilutionHandler.Invalidate))

	// Configuration (changes are owner only)
	mux.HandleFunc("GET /config", middleware.WithLogging(configHandler.GetConfig))
	mux.HandleFunc("PUT /config/seats", middleware.WithLogging(configHandler.PutSeats))
	mux.HandleFunc("PUT /config/proposal-period", middleware.WithLogging(configHandler.PutProposalPeriod))
	mux.HandleFunc("PUT /config/owner", middleware.WithLogging(configHandler.PutOwner))

	// Event outbox
	mux.HandleFunc("GET /events", middleware.WithLogging(eventHandler.ListEvents))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("council-dilution API v1"))
	})

	return mux
}
