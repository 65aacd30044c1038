// SPDX-License-Identifier: MIT

// Package will stores a vault's beneficiary distribution plans: the active
// will that distribution executes, and an optional pending proposal behind a
// fixed 48-hour timelock.
//
// The timelock prevents an owner under duress, or an attacker with temporary
// key control, from rewriting the inheritance plan and having it take effect
// before the rightful owner can notice and correct it.
package will

import (
	"fmt"
	"time"

	"github.com/farholt/heirloomd/internal/types"
)

// TimelockDuration is the mandatory delay between proposing a will and being
// able to activate it.
const TimelockDuration = 48 * time.Hour

// Registry holds the active and pending wills for one vault. Mutation is
// authorized against the owner captured at construction; the owning vault
// serializes access, so the registry itself carries no lock.
type Registry struct {
	owner types.Address

	active      []Beneficiary
	pending     []Beneficiary
	effectiveAt time.Time
}

// NewRegistry returns an empty registry bound to the vault owner.
func NewRegistry(owner types.Address) *Registry {
	return &Registry{owner: owner}
}

// Propose validates and stores a new pending proposal, replacing any prior
// one. The active will is untouched. Returns the activation eligibility time.
func (r *Registry) Propose(caller types.Address, beneficiaries []Beneficiary, now time.Time) (time.Time, error) {
	if caller != r.owner {
		return time.Time{}, ErrNotOwner
	}
	if err := Validate(beneficiaries); err != nil {
		return time.Time{}, err
	}

	r.pending = copyBeneficiaries(beneficiaries)
	r.effectiveAt = now.Add(TimelockDuration)
	return r.effectiveAt, nil
}

// Activate copies the pending proposal into the active slot once its timelock
// has elapsed, then clears the pending slot. Permissionless.
func (r *Registry) Activate(now time.Time) error {
	if r.pending == nil {
		return ErrNoPendingProposal
	}
	if now.Before(r.effectiveAt) {
		return fmt.Errorf("%w: effective in %s", ErrTimelocked, r.effectiveAt.Sub(now))
	}

	r.active = r.pending
	r.pending = nil
	r.effectiveAt = time.Time{}
	return nil
}

// CancelProposal discards the pending proposal.
func (r *Registry) CancelProposal(caller types.Address) error {
	if caller != r.owner {
		return ErrNotOwner
	}
	if r.pending == nil {
		return ErrNoPendingProposal
	}

	r.pending = nil
	r.effectiveAt = time.Time{}
	return nil
}

// Active returns a copy of the active will, nil if none has been activated.
func (r *Registry) Active() []Beneficiary {
	return copyBeneficiaries(r.active)
}

// HasActive reports whether an active will exists.
func (r *Registry) HasActive() bool {
	return len(r.active) > 0
}

// Pending returns a copy of the pending proposal and its activation time.
func (r *Registry) Pending() ([]Beneficiary, time.Time, bool) {
	if r.pending == nil {
		return nil, time.Time{}, false
	}
	return copyBeneficiaries(r.pending), r.effectiveAt, true
}

// Snapshot captures the registry state for persistence.
type Snapshot struct {
	Active      []Beneficiary `json:"active,omitempty"`
	Pending     []Beneficiary `json:"pending,omitempty"`
	EffectiveAt time.Time     `json:"effective_at,omitempty"`
}

// Snapshot returns a copy of the registry state.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Active:      copyBeneficiaries(r.active),
		Pending:     copyBeneficiaries(r.pending),
		EffectiveAt: r.effectiveAt,
	}
}

// Restore replaces the registry state from a snapshot.
func (r *Registry) Restore(snap Snapshot) {
	r.active = copyBeneficiaries(snap.Active)
	r.pending = copyBeneficiaries(snap.Pending)
	r.effectiveAt = snap.EffectiveAt
}
