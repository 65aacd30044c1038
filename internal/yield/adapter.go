// SPDX-License-Identifier: MIT

// Package yield defines the lending-pool boundary that makes idle vault funds
// earn interest, plus an in-process accruing implementation.
//
// The vault treats the adapter as a balance-augmenting service: deposits move
// funds out of the vault's custody, withdrawals bring them back and the
// realized amount returned by a withdrawal is authoritative (it may exceed the
// originally deposited principal).
package yield

import (
	"errors"

	"cosmossdk.io/math"

	"github.com/farholt/heirloomd/internal/types"
)

var (
	// ErrTokenNotSupported indicates the yield source cannot hold this token.
	ErrTokenNotSupported = errors.New("token not supported by yield source")

	// ErrOperation indicates a yield-source operation failed. Recoverable:
	// the vault state is left unchanged.
	ErrOperation = errors.New("yield operation failed")
)

// Adapter is the yield-source boundary for one vault.
type Adapter interface {
	// Deposit moves amount of token from the vault's custody into the yield source.
	Deposit(token types.Token, amount math.Int) error

	// Withdraw moves up to amount of token back into the vault's custody and
	// returns the realized amount.
	Withdraw(token types.Token, amount math.Int) (math.Int, error)

	// WithdrawAll moves the entire balance of token back into the vault's
	// custody and returns the realized amount, including accrued yield.
	WithdrawAll(token types.Token) (math.Int, error)

	// Balance returns the current yield-side balance for token.
	Balance(token types.Token) math.Int

	// Supports reports whether the yield source accepts this token.
	Supports(token types.Token) bool
}
