// SPDX-License-Identifier: MIT
package vault

import (
	"time"

	"cosmossdk.io/math"

	"github.com/farholt/heirloomd/internal/stream"
	"github.com/farholt/heirloomd/internal/types"
	"github.com/farholt/heirloomd/internal/will"
	"github.com/farholt/heirloomd/internal/yield"
)

// Snapshot captures everything needed to rebuild a vault after a restart:
// config, lifecycle state with its entry timestamps, balances, the will
// registry and the stream table.
type Snapshot struct {
	ID    string        `json:"id"`
	Owner types.Address `json:"owner"`
	Cfg   Config        `json:"config"`

	State          types.VaultState `json:"state"`
	LastCheckIn    time.Time        `json:"last_check_in"`
	StateEnteredAt time.Time        `json:"state_entered_at"`
	CreatedAt      time.Time        `json:"created_at"`

	Idle  map[types.Token]math.Int       `json:"idle"`
	Held  []types.Token                  `json:"held"`
	Yield map[types.Token]yield.Position `json:"yield,omitempty"`

	Will    will.Snapshot   `json:"will"`
	Streams stream.Snapshot `json:"streams"`
}

// yieldSnapshotter is the optional persistence surface of a yield adapter.
type yieldSnapshotter interface {
	Snapshot() map[types.Token]yield.Position
	Restore(map[types.Token]yield.Position) error
}

// Snapshot returns a consistent copy of the vault state.
func (v *Vault) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *Vault) snapshotLocked() Snapshot {
	idle := make(map[types.Token]math.Int, len(v.idle))
	for t, b := range v.idle {
		idle[t] = b
	}

	snap := Snapshot{
		ID:             v.id,
		Owner:          v.owner,
		Cfg:            v.cfg,
		State:          v.state,
		LastCheckIn:    v.lastCheckIn,
		StateEnteredAt: v.stateEnteredAt,
		CreatedAt:      v.createdAt,
		Idle:           idle,
		Held:           v.heldTokensLocked(),
		Will:           v.wills.Snapshot(),
		Streams:        v.streams.Snapshot(),
	}
	if ys, ok := v.deps.Yield.(yieldSnapshotter); ok {
		snap.Yield = ys.Snapshot()
	}
	return snap
}

// Restore rebuilds the vault from a snapshot and re-establishes ledger
// consistency by minting the snapshotted balances back into the vault's
// custody accounts.
func (v *Vault) Restore(snap Snapshot) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state = snap.State
	v.lastCheckIn = snap.LastCheckIn
	v.stateEnteredAt = snap.StateEnteredAt
	v.createdAt = snap.CreatedAt

	v.idle = make(map[types.Token]math.Int, len(snap.Idle))
	for t, b := range snap.Idle {
		v.idle[t] = b
		if b.IsPositive() {
			if err := v.deps.Ledger.Mint(Account(v.id), t, b); err != nil {
				return err
			}
		}
	}

	v.held = make(map[types.Token]struct{}, len(snap.Held))
	for _, t := range snap.Held {
		v.held[t] = struct{}{}
	}

	v.wills.Restore(snap.Will)
	v.streams.Restore(snap.Streams)

	// Unclaimed stream totals sit in the engine's custody account.
	outstanding := make(map[types.Token]math.Int)
	for _, s := range snap.Streams.Streams {
		if !s.Active {
			continue
		}
		remaining := s.Total.Sub(s.Claimed)
		if cur, ok := outstanding[s.Token]; ok {
			outstanding[s.Token] = cur.Add(remaining)
		} else {
			outstanding[s.Token] = remaining
		}
	}
	for t, amount := range outstanding {
		if amount.IsPositive() {
			if err := v.deps.Ledger.Mint(v.streams.Custody(), t, amount); err != nil {
				return err
			}
		}
	}

	if ys, ok := v.deps.Yield.(yieldSnapshotter); ok && snap.Yield != nil {
		if err := ys.Restore(snap.Yield); err != nil {
			return err
		}
	}
	return nil
}
