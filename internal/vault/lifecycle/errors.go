// SPDX-License-Identifier: MIT
package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrWrongState indicates the event is not legal in the current state.
	ErrWrongState = errors.New("event not allowed in current state")

	// ErrNotYetDue classifies guard failures: the transition exists but its
	// deadline has not passed. Benign for permissionless callers; call again later.
	ErrNotYetDue = errors.New("period not yet expired")
)

// GuardError reports an unmet time guard and names the still-pending deadline.
type GuardError struct {
	Event EventKind
	Due   time.Time
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("period not yet expired: %s due at %s", e.Event, e.Due.UTC().Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrNotYetDue) match guard errors.
func (e *GuardError) Is(target error) bool {
	return target == ErrNotYetDue
}

// Remaining returns the time left until the guard opens, zero if already open.
func (e *GuardError) Remaining(now time.Time) time.Duration {
	if !now.Before(e.Due) {
		return 0
	}
	return e.Due.Sub(now)
}
