// SPDX-License-Identifier: MIT
package lifecycle

import "github.com/farholt/heirloomd/internal/types"

// Transition is a single allowed edge in the vault state machine.
type Transition struct {
	From  types.VaultState
	To    types.VaultState
	Event EventKind
	Timed bool // guarded by a deadline the caller supplies to Dispatch
}

var transitionsTable = []Transition{
	// Liveness resets. Check-in from any pre-distribution state returns to
	// Active and restarts the liveness clock.
	{From: types.VaultStateActive, To: types.VaultStateActive, Event: EvCheckIn},
	{From: types.VaultStateWarning, To: types.VaultStateActive, Event: EvCheckIn},
	{From: types.VaultStateGracePeriod, To: types.VaultStateActive, Event: EvCheckIn},

	// Forward progression, each edge gated by its elapsed period.
	{From: types.VaultStateActive, To: types.VaultStateWarning, Event: EvTriggerWarning, Timed: true},
	{From: types.VaultStateWarning, To: types.VaultStateGracePeriod, Event: EvTriggerGrace, Timed: true},
	{From: types.VaultStateGracePeriod, To: types.VaultStateDistributing, Event: EvExecuteDistribution, Timed: true},

	// Explicit unwind from the last recoverable state.
	{From: types.VaultStateGracePeriod, To: types.VaultStateActive, Event: EvCancelDistribution},

	// Distribution is irreversible once finished.
	{From: types.VaultStateDistributing, To: types.VaultStateCompleted, Event: EvDistributionComplete},
}

// TransitionFor returns the allowed transition for a given state+event.
func TransitionFor(from types.VaultState, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

// Table returns a copy of the full transition table.
func Table() []Transition {
	out := make([]Transition, len(transitionsTable))
	copy(out, transitionsTable)
	return out
}
