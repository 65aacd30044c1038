// SPDX-License-Identifier: MIT

// Package keeper runs the automation loop: a cron-scheduled sweep that probes
// every vault with CheckUpkeep and performs due transitions. It stands in for
// the untrusted permissionless trigger, so it treats "guard no longer holds"
// as a benign outcome rather than an error.
package keeper

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	xlog "github.com/farholt/heirloomd/internal/log"
	"github.com/farholt/heirloomd/internal/metrics"
	"github.com/farholt/heirloomd/internal/registry"
	"github.com/farholt/heirloomd/internal/vault"
)

// Keeper sweeps all vaults on a cron schedule.
type Keeper struct {
	cron *cron.Cron
	reg  *registry.Registry
	log  zerolog.Logger
}

// New registers the sweep on the given cron schedule (six-field, with seconds).
func New(reg *registry.Registry, schedule string) (*Keeper, error) {
	k := &Keeper{
		cron: cron.New(cron.WithSeconds()),
		reg:  reg,
		log:  xlog.WithComponent("keeper"),
	}
	if _, err := k.cron.AddFunc(schedule, func() { k.Sweep(time.Now()) }); err != nil {
		return nil, fmt.Errorf("register keeper sweep: %w", err)
	}
	return k, nil
}

// Start starts the cron scheduler.
func (k *Keeper) Start() {
	k.cron.Start()
	k.log.Info().Msg("keeper started")
}

// Stop stops the cron scheduler and waits for a running sweep to finish.
func (k *Keeper) Stop() {
	ctx := k.cron.Stop()
	<-ctx.Done()
	k.log.Info().Msg("keeper stopped")
}

// Sweep probes every vault once and performs whatever transition is due.
// Concurrent API triggers can race a sweep; no-ops are expected.
func (k *Keeper) Sweep(now time.Time) {
	for _, v := range k.reg.All() {
		action, needed := v.CheckUpkeep(now)
		if !needed {
			continue
		}

		err := v.PerformUpkeep(action, now)
		switch {
		case err == nil:
			metrics.RecordUpkeep("performed")
			k.log.Info().
				Str(xlog.FieldVaultID, v.ID()).
				Str(xlog.FieldAction, string(action)).
				Msg("upkeep performed")
		case errors.Is(err, vault.ErrUpkeepNotNeeded):
			metrics.RecordUpkeep("noop")
			k.log.Debug().
				Str(xlog.FieldVaultID, v.ID()).
				Str(xlog.FieldAction, string(action)).
				Msg("upkeep no longer needed")
		default:
			metrics.RecordUpkeep("error")
			k.log.Error().Err(err).
				Str(xlog.FieldVaultID, v.ID()).
				Str(xlog.FieldAction, string(action)).
				Msg("upkeep failed")
		}
	}
}
