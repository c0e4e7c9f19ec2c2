// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides caller identity for the ledger API.

# Addresses

Council members, voters and the owner are 20-byte addresses in hex:

	addr, err := auth.ParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

The zero address parses; it is the null identity and the ledger rejects it
wherever an identity is required.

# Caller Keys

Callers prove control of an address with an HMAC-SHA256 key:

	key := auth.GenerateCallerKey(addr, salt)
	err := auth.ValidateCallerKey(addr, key, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same address and salt always produce the same key, so keys are never
stored. Keys are issued out of band with the --issue-key flag.

# Requests

Handlers read the caller from two headers:

	X-Caller-Address: 0x...
	X-Caller-Key: <key>

	caller, err := auth.CallerFromRequest(r, salt)

Missing headers yield ErrMissingCaller; a bad key yields ErrInvalidCallerKey.
*/
package auth
