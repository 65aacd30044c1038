// SPDX-License-Identifier: MIT

// Package ledger provides the asset-custody boundary: moving token amounts
// between accounts. The vault core only depends on the Transferor interface;
// custody mechanics beyond balance bookkeeping are out of scope.
package ledger

import (
	"errors"

	"cosmossdk.io/math"

	"github.com/farholt/heirloomd/internal/types"
)

var (
	// ErrInsufficientFunds indicates the source account cannot cover the transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAccount indicates a zero source or destination address.
	ErrInvalidAccount = errors.New("invalid account")
)

// Transferor moves token amounts between accounts.
type Transferor interface {
	// Transfer moves amount of token from one account to another.
	Transfer(from, to types.Address, token types.Token, amount math.Int) error

	// Mint credits an account out of thin air. Used by the yield boundary to
	// realize accrued interest and by tests to fund accounts.
	Mint(to types.Address, token types.Token, amount math.Int) error

	// Balance returns the account's balance for a token (zero if unknown).
	Balance(addr types.Address, token types.Token) math.Int
}
