// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the council-dilution API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(ledger, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Elections (logging requires the owner's caller headers):

	POST /elections                      - Log an election
	GET  /elections/latest               - Latest election id
	GET  /elections/{id}                 - Full election record
	GET  /elections/{id}/voters/{voter}  - Nominee the voter backed
	GET  /weights/delegated?voter=&nominee=
	GET  /weights/{nominee}              - Latest voting weight

Proposals (public):

	POST /proposals                                - Log a proposal
	POST /proposals/valid                          - Filter known ids
	GET  /proposals/{id}                           - Proposal window
	GET  /proposals/{id}/members/{member}/weight   - Diluted ratio
	GET  /proposals/{id}/members/{member}/receipt  - Dilution receipt
	GET  /proposals/{id}/voters/{voter}            - Has the voter diluted

Dilution (the caller is the voter):

	POST   /proposals/{id}/dilutions/{member}
	DELETE /proposals/{id}/dilutions/{member}

Configuration:

	GET /config
	PUT /config/seats
	PUT /config/proposal-period
	PUT /config/owner

Events:

	GET /events?after=&limit=

Every API route except health and metrics is wrapped in
middleware.WithLogging.
*/
package router
