// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Lifecycle metrics
	stateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heirloom_state_transitions_total",
		Help: "Vault state transitions by previous and new state",
	}, []string{"from", "to"})

	checkIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heirloom_checkins_total",
		Help: "Total number of successful owner check-ins",
	})

	activeVaults = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "heirloom_vaults",
		Help: "Number of vaults managed by this daemon",
	})

	// Funds metrics
	deposits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heirloom_deposits_total",
		Help: "Successful deposits by token",
	}, []string{"token"})

	withdrawals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heirloom_withdrawals_total",
		Help: "Successful owner withdrawals by token",
	}, []string{"token"})

	// Distribution metrics
	distributions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heirloom_distribution_payouts_total",
		Help: "Per-beneficiary distribution payouts by type",
	}, []string{"type"}) // type=instant|streamed

	distributionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heirloom_distribution_failures_total",
		Help: "Distribution attempts rolled back due to an error",
	})

	// Stream metrics
	streamClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heirloom_stream_claims_total",
		Help: "Stream claim attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	streamsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heirloom_streams_completed_total",
		Help: "Streams fully claimed and closed",
	})

	// Keeper metrics
	upkeepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heirloom_upkeep_runs_total",
		Help: "Keeper upkeep attempts by outcome",
	}, []string{"outcome"}) // outcome=performed|noop|error
)

// RecordStateTransition tracks one lifecycle transition.
func RecordStateTransition(from, to string) {
	stateTransitions.WithLabelValues(from, to).Inc()
}

// RecordCheckIn tracks a successful owner check-in.
func RecordCheckIn() {
	checkIns.Inc()
}

// SetVaultCount updates the managed vault gauge.
func SetVaultCount(n int) {
	activeVaults.Set(float64(n))
}

// RecordDeposit tracks a successful deposit.
func RecordDeposit(token string) {
	deposits.WithLabelValues(token).Inc()
}

// RecordWithdrawal tracks a successful withdrawal.
func RecordWithdrawal(token string) {
	withdrawals.WithLabelValues(token).Inc()
}

// RecordPayout tracks one per-beneficiary distribution payout.
func RecordPayout(distributionType string) {
	distributions.WithLabelValues(distributionType).Inc()
}

// RecordDistributionFailure tracks a rolled-back distribution attempt.
func RecordDistributionFailure() {
	distributionFailures.Inc()
}

// RecordStreamClaim tracks a claim attempt.
func RecordStreamClaim(outcome string) {
	streamClaims.WithLabelValues(outcome).Inc()
}

// RecordStreamCompleted tracks a fully claimed stream.
func RecordStreamCompleted() {
	streamsCompleted.Inc()
}

// RecordUpkeep tracks one keeper upkeep attempt.
func RecordUpkeep(outcome string) {
	upkeepRuns.WithLabelValues(outcome).Inc()
}
