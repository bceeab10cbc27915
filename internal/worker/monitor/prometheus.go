package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// RPCCalls 每次地址解析尝试（含首次）以及总供应量查询各计一次
	RPCCalls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "circ_supply_rpc_calls_total",
			Help: "Total number of balance resolution attempts and supply queries.",
		},
	)
	FetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "circ_supply_fetch_failures_total",
			Help: "Addresses whose balance fell back to zero after exhausting retries.",
		},
	)
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circ_supply_runs_total",
			Help: "Circulating supply runs by final state.",
		},
		[]string{"state"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "circ_supply_run_duration_seconds",
			Help:    "Wall-clock duration of one circulating supply run.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "circ_supply_batch_duration_seconds",
			Help:    "Time taken to resolve one batch of locked wallets.",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
	)
	LockedWallets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "circ_supply_locked_wallets",
			Help: "Number of locked wallets loaded for the latest run.",
		},
	)

	// APIRequests query API
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circ_supply_api_requests_total",
			Help: "Query API requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		RPCCalls,
		FetchFailures,
		RunsTotal,
		RunDuration,
		BatchDuration,
		LockedWallets,
		APIRequests,
	)
}
