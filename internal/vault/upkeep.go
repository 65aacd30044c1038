// SPDX-License-Identifier: MIT
package vault

import (
	"errors"
	"fmt"
	"time"

	"github.com/farholt/heirloomd/internal/types"
	"github.com/farholt/heirloomd/internal/vault/lifecycle"
)

// UpkeepAction names the timed transition an external trigger should perform.
type UpkeepAction string

const (
	ActionNone       UpkeepAction = ""
	ActionWarning    UpkeepAction = "trigger_warning"
	ActionGrace      UpkeepAction = "trigger_grace_period"
	ActionDistribute UpkeepAction = "execute_distribution"
)

// IsValid checks whether the action is a performable upkeep action.
func (a UpkeepAction) IsValid() bool {
	switch a {
	case ActionWarning, ActionGrace, ActionDistribute:
		return true
	default:
		return false
	}
}

// CheckUpkeep reports whether any timed transition is due right now, and
// which one, without mutating state. Distribution is only reported once an
// active will exists; without one the vault parks in GracePeriod until the
// owner recovers it.
func (v *Vault) CheckUpkeep(now time.Time) (UpkeepAction, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var ev lifecycle.EventKind
	var action UpkeepAction
	switch v.state {
	case types.VaultStateActive:
		ev, action = lifecycle.EvTriggerWarning, ActionWarning
	case types.VaultStateWarning:
		ev, action = lifecycle.EvTriggerGrace, ActionGrace
	case types.VaultStateGracePeriod:
		if !v.wills.HasActive() {
			return ActionNone, false
		}
		ev, action = lifecycle.EvExecuteDistribution, ActionDistribute
	default:
		return ActionNone, false
	}

	if now.Before(v.deadlineFor(ev)) {
		return ActionNone, false
	}
	return action, true
}

// PerformUpkeep re-validates and performs exactly the indicated transition.
// Safe under redundant or delayed invocation: a guard that no longer holds
// yields ErrUpkeepNotNeeded, a benign no-op for the caller.
func (v *Vault) PerformUpkeep(action UpkeepAction, now time.Time) error {
	var err error
	switch action {
	case ActionWarning:
		err = v.TriggerWarning(now)
	case ActionGrace:
		err = v.TriggerGracePeriod(now)
	case ActionDistribute:
		err = v.ExecuteDistribution(now)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrUpkeepNotNeeded, action)
	}

	if err != nil && (errors.Is(err, lifecycle.ErrNotYetDue) || errors.Is(err, lifecycle.ErrWrongState)) {
		return fmt.Errorf("%w: %v", ErrUpkeepNotNeeded, err)
	}
	return err
}
