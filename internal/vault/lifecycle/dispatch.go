// SPDX-License-Identifier: MIT
package lifecycle

import (
	"fmt"
	"time"

	"github.com/farholt/heirloomd/internal/types"
)

// Dispatch resolves the transition for state+event, re-checking the time
// guard. It is the only entry point that interprets the transition table.
//
// For timed events the caller supplies the deadline the guard is measured
// against; an unmet guard returns a *GuardError, which callers treat as a
// retry-later no-op rather than a fault.
func Dispatch(from types.VaultState, ev EventKind, now, due time.Time) (Transition, error) {
	tr, ok := TransitionFor(from, ev)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s in state %s", ErrWrongState, ev, from)
	}
	if tr.Timed && now.Before(due) {
		return Transition{}, &GuardError{Event: ev, Due: due}
	}
	return tr, nil
}
