// SPDX-License-Identifier: MIT
package types

import (
	"encoding/json"
	"fmt"
)

// VaultState represents the current lifecycle state of an inheritance vault.
type VaultState string

// Vault state constants define all possible lifecycle states.
const (
	// VaultStateActive indicates the owner is live and the vault operates normally.
	VaultStateActive VaultState = "active"

	// VaultStateWarning indicates the check-in interval has lapsed.
	VaultStateWarning VaultState = "warning"

	// VaultStateGracePeriod indicates the warning period has lapsed; the owner
	// has one last window to check in or cancel.
	VaultStateGracePeriod VaultState = "grace_period"

	// VaultStateDistributing indicates distribution is executing.
	VaultStateDistributing VaultState = "distributing"

	// VaultStateCompleted indicates distribution has finished. Terminal.
	VaultStateCompleted VaultState = "completed"
)

// String implements fmt.Stringer.
func (s VaultState) String() string {
	return string(s)
}

// IsValid checks whether the vault state is one of the defined constants.
func (s VaultState) IsValid() bool {
	switch s {
	case VaultStateActive, VaultStateWarning, VaultStateGracePeriod,
		VaultStateDistributing, VaultStateCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal checks whether the state admits no further transitions.
func (s VaultState) IsTerminal() bool {
	return s == VaultStateCompleted
}

// AllowsCheckIn reports whether an owner check-in is accepted in this state.
// Distribution, once started, cannot be interrupted by a check-in.
func (s VaultState) AllowsCheckIn() bool {
	switch s {
	case VaultStateActive, VaultStateWarning, VaultStateGracePeriod:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler.
func (s VaultState) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *VaultState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	state := VaultState(str)
	if !state.IsValid() {
		return fmt.Errorf("invalid vault state: %q", str)
	}

	*s = state
	return nil
}

// ParseVaultState parses a string into a VaultState.
func ParseVaultState(s string) (VaultState, error) {
	state := VaultState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid vault state: %q", s)
	}
	return state, nil
}

// AllVaultStates returns all defined vault states in lifecycle order.
func AllVaultStates() []VaultState {
	return []VaultState{
		VaultStateActive,
		VaultStateWarning,
		VaultStateGracePeriod,
		VaultStateDistributing,
		VaultStateCompleted,
	}
}
