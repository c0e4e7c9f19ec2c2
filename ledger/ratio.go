// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import "github.com/holiman/uint256"

// Precision is the fixed-point scale of diluted ratios; Precision means
// the member's weight is undiluted
var Precision = uint256.NewInt(1_000_000_000_000_000_000)

// DilutedRatio returns (total - diluted) * Precision / total. A zero total
// and a dilution at or above the total both yield zero.
func DilutedRatio(total, diluted *uint256.Int) *uint256.Int {
	if total.IsZero() || !diluted.Lt(total) {
		return new(uint256.Int)
	}

	remaining := new(uint256.Int).Sub(total, diluted)
	// remaining < total, so the quotient is below Precision
	ratio, _ := new(uint256.Int).MulDivOverflow(remaining, Precision, total)
	return ratio
}
