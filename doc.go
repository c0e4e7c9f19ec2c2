// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the council-dilution API server.

council-dilution records council elections and governance proposals, and lets
voters who delegated weight to an elected council member withdraw ("dilute")
that weight for a single proposal while the proposal's voting window is open.
The diluted weight of a member is reported as a fixed-point ratio where
10^18 means undiluted.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=council.db CALLER_KEY_SALT=... OWNER_ADDRESS=0x... go run .

Or with flags:

	go run . -p 3318 -d council.db --caller-salt ... --owner 0x...

Issue a caller key for an address and exit:

	go run . --caller-salt ... --issue-key 0x...

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path/DSN or PostgreSQL connection string
  - CALLER_KEY_SALT (--caller-salt): Secret for caller key HMAC
  - OWNER_ADDRESS (--owner): Ledger owner, required on first start

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - COUNCIL_SEATS (--seats): Initial roster size (default: 2)
  - PROPOSAL_PERIOD (--proposal-period): Initial window in seconds (default: 259200)
  - ELIGIBILITY_MODE (--eligibility): latest or pinned (default: latest)

A .env file is loaded first when present (--env-file to choose another).
Seats, period and owner are stored on first start; afterwards they change only
through the owner endpoints.

# Architecture

The server uses a handler-based architecture with dependency injection:

  - ledger: Elections, proposals, dilution receipts and owner config
  - handlers: HTTP request handlers over the ledger
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON and error helpers
  - models: Domain and request/response types
  - events: Event records and the in-process bus
  - metrics: go-kit metrics backed by Prometheus
  - auth: Caller addresses and keys
  - db: Store connection and schema
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
