// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Caller identity headers
const (
	HeaderCallerAddress = "X-Caller-Address"
	HeaderCallerKey     = "X-Caller-Key"
)

var (
	ErrMissingCaller    = errors.New("caller identity required")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidCallerKey = errors.New("invalid caller key")
)

// ParseAddress parses a 20-byte hex address, with or without 0x prefix.
// The null address parses; callers decide whether it is acceptable.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, ErrInvalidAddress
	}
	return common.HexToAddress(s), nil
}

// GenerateCallerKey creates an HMAC-based key proving control of an address.
// The key does not depend on the address's hex casing.
func GenerateCallerKey(addr common.Address, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write(addr.Bytes())
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateCallerKey checks if the provided key was issued for addr
func ValidateCallerKey(addr common.Address, key, salt string) error {
	expected := GenerateCallerKey(addr, salt)
	if !hmac.Equal([]byte(key), []byte(expected)) {
		return ErrInvalidCallerKey
	}
	return nil
}

// CallerFromRequest authenticates the caller headers of r
func CallerFromRequest(r *http.Request, salt string) (common.Address, error) {
	rawAddr := r.Header.Get(HeaderCallerAddress)
	key := r.Header.Get(HeaderCallerKey)
	if rawAddr == "" || key == "" {
		return common.Address{}, ErrMissingCaller
	}

	addr, err := ParseAddress(rawAddr)
	if err != nil {
		return common.Address{}, err
	}
	if err := ValidateCallerKey(addr, key, salt); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}
