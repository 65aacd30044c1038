// SPDX-License-Identifier: MIT

// Package lifecycle defines the vault state machine: the allowed transitions,
// their time guards, and the single Dispatch entry point that interprets them.
package lifecycle

// EventKind identifies a lifecycle event.
type EventKind string

const (
	// EvCheckIn is the owner's proof of life.
	EvCheckIn EventKind = "check_in"

	// EvTriggerWarning moves an overdue vault into Warning. Timed.
	EvTriggerWarning EventKind = "trigger_warning"

	// EvTriggerGrace moves an expired Warning into GracePeriod. Timed.
	EvTriggerGrace EventKind = "trigger_grace_period"

	// EvExecuteDistribution starts distribution at GracePeriod expiry. Timed.
	EvExecuteDistribution EventKind = "execute_distribution"

	// EvCancelDistribution is the owner's explicit unwind from GracePeriod.
	EvCancelDistribution EventKind = "cancel_distribution"

	// EvDistributionComplete closes the vault after distribution finishes.
	EvDistributionComplete EventKind = "distribution_complete"
)

// AllEventKinds returns all defined lifecycle events.
func AllEventKinds() []EventKind {
	return []EventKind{
		EvCheckIn,
		EvTriggerWarning,
		EvTriggerGrace,
		EvExecuteDistribution,
		EvCancelDistribution,
		EvDistributionComplete,
	}
}
