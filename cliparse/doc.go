// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite file or PostgreSQL connection string (required)
  - DatabaseType: sqlite (default) or postgres
  - CallerKeySalt: Secret for caller key HMAC (required)
  - OwnerAddress: Initial ledger owner
  - NumSeats: Initial council seats (default: 2)
  - ProposalPeriod: Initial voting window (default: 259200s, three days)
  - Eligibility: latest (default) or pinned

Owner, seats and period only seed the ledger on first start. After that
they change through the owner-gated API.

# CLI Flags

	-p, --port            Server port
	-d, --database        Database URL
	-t, --db-type         Database type
	--caller-salt         Caller key salt
	--owner               Initial owner address
	--seats               Initial council seats
	--proposal-period     Initial proposal period in seconds
	--eligibility         latest or pinned
	--env-file            Environment file (default .env if present)
	--issue-key ADDRESS   Print the caller key for ADDRESS and exit

# Environment Variables

Flags fall back to environment variables, after the env file is loaded with
godotenv (existing variables are never overwritten):

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	CALLER_KEY_SALT  → --caller-salt
	OWNER_ADDRESS    → --owner
	COUNCIL_SEATS    → --seats
	PROPOSAL_PERIOD  → --proposal-period
	ELIGIBILITY_MODE → --eligibility

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - CALLER_KEY_SALT must be provided
  - DATABASE_URL must be provided (except with --issue-key)
  - addresses must be 20-byte hex
  - seats and period must be positive
*/
package cliparse
