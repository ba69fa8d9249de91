package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Simulations counts simulator requests by outcome.
	Simulations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_engine_simulations_total",
			Help: "Loan simulations served",
		},
		[]string{"status"},
	)

	// Calculations counts the single-shot calculator endpoints.
	Calculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_engine_calculations_total",
			Help: "Payment, coverage, balance and payoff calculations",
		},
		[]string{"kind", "status"},
	)

	// AccountOperations counts tracked-account writes.
	AccountOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_engine_account_operations_total",
			Help: "Tracked account operations",
		},
		[]string{"operation", "status"},
	)

	// PayoffProjections counts the payoff status written back to accounts.
	PayoffProjections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_engine_payoff_projections_total",
			Help: "Payoff projections by resulting status",
		},
		[]string{"status"},
	)

	// RefreshRuns counts scheduled balance refreshes.
	RefreshRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_engine_refresh_runs_total",
			Help: "Scheduled refreshes of derived account balances",
		},
		[]string{"status"},
	)

	// RefreshedAccounts counts accounts re-derived by the scheduler.
	RefreshedAccounts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "debt_engine_refreshed_accounts_total",
			Help: "Accounts re-derived by the refresh scheduler",
		},
	)

	// SimulationCache counts simulation cache lookups by result.
	SimulationCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_engine_simulation_cache_total",
			Help: "Simulation cache lookups",
		},
		[]string{"result"},
	)

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "debt_engine_rate_limited_total",
			Help: "API requests rejected with 429",
		},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
