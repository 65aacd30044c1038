// SPDX-License-Identifier: MIT

// Package api exposes heirloomd's HTTP surface: owner operations,
// permissionless trigger endpoints, queries and beneficiary claims.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/farholt/heirloomd/internal/config"
	"github.com/farholt/heirloomd/internal/ledger"
	xlog "github.com/farholt/heirloomd/internal/log"
	"github.com/farholt/heirloomd/internal/registry"
)

// Server is the HTTP API server.
type Server struct {
	reg    *registry.Registry
	ledger ledger.Transferor
	cfg    config.Config
	log    zerolog.Logger

	// nowFn allows tests to pin the clock; defaults to time.Now.
	nowFn func() time.Time
}

// New constructs the API server.
func New(reg *registry.Registry, l ledger.Transferor, cfg config.Config) *Server {
	return &Server{
		reg:    reg,
		ledger: l,
		cfg:    cfg,
		log:    xlog.WithComponent("api"),
		nowFn:  time.Now,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(rateLimit(s.cfg.RateLimit)).Post("/vaults", s.handleCreateVault)

		r.Route("/vaults/{owner}", func(r chi.Router) {
			r.Get("/", s.handleVaultStatus)
			r.Get("/will", s.handleGetWill)
			r.Get("/upkeep", s.handleCheckUpkeep)
			r.Get("/balances/{token}", s.handleBalance)
			r.Get("/claimable", s.handleClaimable)
			r.Get("/streams", s.handleStreams)

			r.Group(func(r chi.Router) {
				r.Use(rateLimit(s.cfg.RateLimit))
				r.Post("/checkin", s.handleCheckIn)
				r.Post("/deposit", s.handleDeposit)
				r.Post("/withdraw", s.handleWithdraw)
				r.Post("/will", s.handleProposeWill)
				r.Post("/will/activate", s.handleActivateWill)
				r.Delete("/will/pending", s.handleCancelProposal)
				r.Post("/upkeep", s.handlePerformUpkeep)
				r.Post("/distribution/execute", s.handleExecuteDistribution)
				r.Post("/distribution/cancel", s.handleCancelDistribution)
				r.Post("/streams/{id}/claim", s.handleClaimStream)
			})
		})
	})

	return r
}
