// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/farholt/heirloomd/internal/registry"
	"github.com/farholt/heirloomd/internal/stream"
	"github.com/farholt/heirloomd/internal/vault"
	"github.com/farholt/heirloomd/internal/vault/lifecycle"
	"github.com/farholt/heirloomd/internal/will"
	"github.com/farholt/heirloomd/internal/yield"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error onto an HTTP status and writes it.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// writeBadRequest writes a 400 response for malformed input.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// statusFor classifies domain errors into HTTP statuses.
func statusFor(err error) int {
	switch {
	// Authorization
	case errors.Is(err, vault.ErrNotOwner),
		errors.Is(err, will.ErrNotOwner),
		errors.Is(err, stream.ErrNotRecipient):
		return http.StatusForbidden

	// Unknown resources
	case errors.Is(err, registry.ErrVaultNotFound),
		errors.Is(err, stream.ErrStreamNotFound):
		return http.StatusNotFound

	// State guards: legal requests whose moment has not come (or has passed)
	case errors.Is(err, lifecycle.ErrNotYetDue),
		errors.Is(err, lifecycle.ErrWrongState),
		errors.Is(err, vault.ErrWrongState),
		errors.Is(err, vault.ErrUpkeepNotNeeded),
		errors.Is(err, vault.ErrNoBeneficiaries),
		errors.Is(err, will.ErrTimelocked),
		errors.Is(err, will.ErrNoPendingProposal),
		errors.Is(err, stream.ErrNothingToClaim),
		errors.Is(err, stream.ErrStreamCompleted):
		return http.StatusConflict

	// Validation and resource limits
	case errors.Is(err, vault.ErrZeroAmount),
		errors.Is(err, vault.ErrInvalidConfig),
		errors.Is(err, vault.ErrInsufficientBalance),
		errors.Is(err, vault.ErrUnsupportedToken),
		errors.Is(err, will.ErrNoBeneficiaries),
		errors.Is(err, will.ErrInvalidPercentages),
		errors.Is(err, will.ErrZeroBeneficiary),
		errors.Is(err, will.ErrStreamDurationZero),
		errors.Is(err, registry.ErrVaultExists),
		errors.Is(err, registry.ErrIntervalTooShort),
		errors.Is(err, registry.ErrIntervalTooLong):
		return http.StatusBadRequest

	// Downstream boundaries
	case errors.Is(err, vault.ErrTransferFailed),
		errors.Is(err, vault.ErrYieldOperation),
		errors.Is(err, yield.ErrOperation),
		errors.Is(err, yield.ErrTokenNotSupported):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
