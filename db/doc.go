// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connections

Open selects the driver by database type:

	conn, err := db.Open(db.TypeSQLite, "file:dilution.db")
	conn, err := db.Open(db.TypePostgres, "postgres://...")

SQLite (modernc.org/sqlite, pure Go) is the default; PostgreSQL uses lib/pq.
SQLite pools are limited to one connection with foreign keys enabled.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The statements are portable between SQLite and PostgreSQL.

# Tables

  - ledger_config: owner, seat count, proposal period, latest election pointer
  - election: append-only election index
  - election_member: fixed-size roster per election
  - election_delegation: voter → nominee → weight per election
  - election_nominee: nominee → aggregate weight per election
  - proposal: voting windows
  - dilution_receipt: total dilution per (proposal, member)
  - dilution_contribution: per-voter contribution per receipt
  - dilutor: dilutor set slots per receipt
  - ledger_event: emitted events in sequence order

# Relationships

	election 1──* election_member
	election 1──* election_delegation
	election 1──* election_nominee
	proposal 1──* dilution_receipt
	dilution_receipt 1──* dilution_contribution
	dilution_receipt 1──* dilutor

Weights are decimal TEXT columns; timestamps are unix seconds.
*/
package db
