// SPDX-License-Identifier: MIT

// Package types provides type-safe enumerations and shared primitives for heirloomd.
//
// This package centralizes typed constants, enums and identity types
// to prevent string-based bugs across the vault, will and stream packages.
package types

import "strings"

// Address identifies an account (owner, beneficiary, custody account).
type Address string

// ZeroAddress is the empty address; never a valid transfer target.
const ZeroAddress Address = ""

// String implements fmt.Stringer.
func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is empty or all-whitespace.
func (a Address) IsZero() bool {
	return strings.TrimSpace(string(a)) == ""
}

// Token identifies an asset by symbol. The native currency flows through the
// same per-token bookkeeping under the reserved symbol TokenNative.
type Token string

// TokenNative is the reserved symbol for the native currency.
const TokenNative Token = "native"

// String implements fmt.Stringer.
func (t Token) String() string {
	return string(t)
}

// IsNative reports whether the token is the native currency.
func (t Token) IsNative() bool {
	return t == TokenNative
}

// BasisPointsDenominator is the percentage denominator: 10000 bp = 100%.
const BasisPointsDenominator = 10000
