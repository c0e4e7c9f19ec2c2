// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

// InitPrometheusMetrics registers collectors with the default Prometheus
// registry. Call once at startup; registering twice panics.
func InitPrometheusMetrics() {
	API = PromAPIMetrics()
	Ledger = PromLedgerMetrics()
}
