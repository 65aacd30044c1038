// SPDX-License-Identifier: MIT
package vault

import "errors"

var (
	// Authorization
	ErrNotOwner = errors.New("caller is not the vault owner")

	// State guards
	ErrWrongState      = errors.New("operation not allowed in current vault state")
	ErrUpkeepNotNeeded = errors.New("no upkeep needed")
	ErrNoBeneficiaries = errors.New("no active will configured")

	// Validation
	ErrZeroAmount    = errors.New("amount must be positive")
	ErrInvalidConfig = errors.New("invalid vault config")

	// Resources
	ErrInsufficientBalance = errors.New("insufficient vault balance")
	ErrUnsupportedToken    = errors.New("token not supported")

	// Transfers
	ErrTransferFailed = errors.New("asset transfer failed")
	ErrYieldOperation = errors.New("yield boundary operation failed")
)
