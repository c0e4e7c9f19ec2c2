// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

const (
	Namespace       = "council_dilution"
	APISubsystem    = "api"
	LedgerSubsystem = "ledger"
)

// Outcome label values for ledger operations. Failed operations use the
// ledger error code instead.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
