// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farholt/heirloomd/internal/api"
	"github.com/farholt/heirloomd/internal/config"
	"github.com/farholt/heirloomd/internal/keeper"
	"github.com/farholt/heirloomd/internal/ledger"
	xlog "github.com/farholt/heirloomd/internal/log"
	"github.com/farholt/heirloomd/internal/registry"
	"github.com/farholt/heirloomd/internal/store"
	"github.com/farholt/heirloomd/internal/types"
	"github.com/farholt/heirloomd/internal/vault"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "heirloomd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	xlog.Configure(xlog.Config{
		Level:   cfg.LogLevel,
		Service: "heirloomd",
		Version: version,
	})
	logger := xlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vaultStore, err := store.NewVaultStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open vault store: %w", err)
	}
	defer func() { _ = vaultStore.Close() }()

	tokens := make([]types.Token, 0, len(cfg.SupportedTokens))
	for _, t := range cfg.SupportedTokens {
		tokens = append(tokens, types.Token(t))
	}

	bank := ledger.NewMemory()
	reg := registry.New(registry.Options{
		Ledger:          bank,
		Sink:            vault.NewLogSink(),
		Persister:       vaultStore,
		YieldRateBps:    cfg.YieldRateBps,
		SupportedTokens: tokens,
	})

	snaps, err := vaultStore.LoadAll()
	if err != nil {
		return fmt.Errorf("load vault snapshots: %w", err)
	}
	if err := reg.Rehydrate(snaps); err != nil {
		return fmt.Errorf("rehydrate vaults: %w", err)
	}
	logger.Info().Int("vaults", len(snaps)).Msg("vaults rehydrated")

	sweeper, err := keeper.New(reg, cfg.KeeperSchedule)
	if err != nil {
		return fmt.Errorf("configure keeper: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.New(reg, bank, cfg).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("listen", cfg.Listen).
			Str("db_path", cfg.DBPath).
			Str("keeper_schedule", cfg.KeeperSchedule).
			Msg("heirloomd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info().Msg("heirloomd stopped")
	return nil
}
