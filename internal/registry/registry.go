// SPDX-License-Identifier: MIT

// Package registry is the vault factory: it deploys and indexes exactly one
// vault per owner identity and enforces configuration bounds. Vaults are
// self-contained; the registry holds no mutable cross-vault state beyond the
// index itself.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/farholt/heirloomd/internal/ledger"
	xlog "github.com/farholt/heirloomd/internal/log"
	"github.com/farholt/heirloomd/internal/metrics"
	"github.com/farholt/heirloomd/internal/types"
	"github.com/farholt/heirloomd/internal/vault"
	"github.com/farholt/heirloomd/internal/yield"
)

// Check-in interval bounds enforced by the factory, not by the vault.
const (
	MinCheckInInterval = time.Hour
	MaxCheckInInterval = 365 * 24 * time.Hour
)

var (
	ErrVaultExists      = errors.New("owner already has a vault")
	ErrVaultNotFound    = errors.New("vault not found")
	ErrIntervalTooShort = errors.New("check-in interval too short")
	ErrIntervalTooLong  = errors.New("check-in interval too long")
)

// Persister saves vault snapshots after successful mutations.
type Persister interface {
	Save(snap vault.Snapshot) error
}

// Options configure how the registry provisions vaults.
type Options struct {
	Ledger          ledger.Transferor
	Sink            vault.Sink
	Persister       Persister // optional
	YieldRateBps    int64
	SupportedTokens []types.Token
}

// Registry indexes vaults by owner.
type Registry struct {
	mu     sync.RWMutex
	opts   Options
	vaults map[types.Address]*vault.Vault
	log    zerolog.Logger
}

// New returns an empty registry.
func New(opts Options) *Registry {
	if opts.Sink == nil {
		opts.Sink = vault.NopSink{}
	}
	return &Registry{
		opts:   opts,
		vaults: make(map[types.Address]*vault.Vault),
		log:    xlog.WithComponent("registry"),
	}
}

// CreateVault provisions a new vault for owner with the given timing config.
// One vault per owner; check-in interval bounds are enforced here.
func (r *Registry) CreateVault(owner types.Address, cfg vault.Config, now time.Time) (*vault.Vault, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.CheckInInterval < MinCheckInInterval {
		return nil, fmt.Errorf("%w: %s < %s", ErrIntervalTooShort, cfg.CheckInInterval, MinCheckInInterval)
	}
	if cfg.CheckInInterval > MaxCheckInInterval {
		return nil, fmt.Errorf("%w: %s > %s", ErrIntervalTooLong, cfg.CheckInInterval, MaxCheckInInterval)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.vaults[owner]; exists {
		return nil, fmt.Errorf("%w: %s", ErrVaultExists, owner)
	}

	id := uuid.NewString()
	v, err := r.provisionLocked(id, owner, cfg, now)
	if err != nil {
		return nil, err
	}

	r.vaults[owner] = v
	metrics.SetVaultCount(len(r.vaults))
	r.log.Info().
		Str(xlog.FieldVaultID, id).
		Str(xlog.FieldOwner, owner.String()).
		Msg("vault created")

	r.persist(v)
	return v, nil
}

// provisionLocked wires a vault with its own yield adapter and persistence hook.
func (r *Registry) provisionLocked(id string, owner types.Address, cfg vault.Config, now time.Time) (*vault.Vault, error) {
	adapter := yield.NewMemory(
		r.opts.Ledger,
		vault.YieldAccount(id),
		vault.Account(id),
		r.opts.YieldRateBps,
		r.opts.SupportedTokens,
	)

	v, err := vault.New(id, owner, cfg, now, vault.Deps{
		Ledger: r.opts.Ledger,
		Yield:  adapter,
		Sink:   r.opts.Sink,
	})
	if err != nil {
		return nil, err
	}

	if r.opts.Persister != nil {
		v.SetPersistFunc(func(snap vault.Snapshot) {
			if err := r.opts.Persister.Save(snap); err != nil {
				r.log.Error().Err(err).
					Str(xlog.FieldVaultID, snap.ID).
					Msg("persist vault snapshot")
			}
		})
	}
	return v, nil
}

// Rehydrate rebuilds vaults from persisted snapshots at startup.
func (r *Registry) Rehydrate(snaps []vault.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, snap := range snaps {
		v, err := r.provisionLocked(snap.ID, snap.Owner, snap.Cfg, snap.CreatedAt)
		if err != nil {
			return fmt.Errorf("rehydrate vault %s: %w", snap.ID, err)
		}
		if err := v.Restore(snap); err != nil {
			return fmt.Errorf("rehydrate vault %s: %w", snap.ID, err)
		}
		r.vaults[snap.Owner] = v
	}

	metrics.SetVaultCount(len(r.vaults))
	return nil
}

// Get returns the owner's vault.
func (r *Registry) Get(owner types.Address) (*vault.Vault, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vaults[owner]
	if !ok {
		return nil, fmt.Errorf("%w: owner %s", ErrVaultNotFound, owner)
	}
	return v, nil
}

// All returns every managed vault.
func (r *Registry) All() []*vault.Vault {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*vault.Vault, 0, len(r.vaults))
	for _, v := range r.vaults {
		out = append(out, v)
	}
	return out
}

func (r *Registry) persist(v *vault.Vault) {
	if r.opts.Persister == nil {
		return
	}
	if err := r.opts.Persister.Save(v.Snapshot()); err != nil {
		r.log.Error().Err(err).
			Str(xlog.FieldVaultID, v.ID()).
			Msg("persist vault snapshot")
	}
}
