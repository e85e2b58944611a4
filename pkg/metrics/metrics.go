// Copyright 2025 Certen Protocol
//
// Relayer metrics — Prometheus counters and histograms for the scheduler's
// three recurring tasks and the VAA verification pipeline, in the style of
// the Wormhole guardian node's processor metrics (observationChanDelay /
// observationTotalDelay in node/pkg/processor/processor.go): package-level
// promauto collectors registered against the default registry, read by a
// promhttp handler mounted on the HTTP surface.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SchedulerTicksTotal counts completed scheduler task runs, labeled by
	// task name ("process", "past_deposits", "cleanup") and outcome
	// ("ok", "error").
	SchedulerTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbtc_relayer_scheduler_ticks_total",
			Help: "Completed scheduler task runs, by task and outcome.",
		},
		[]string{"task", "outcome"},
	)

	// SchedulerTickDuration histograms how long each scheduler task took
	// to sweep every registered chain.
	SchedulerTickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tbtc_relayer_scheduler_tick_duration_seconds",
			Help:    "Duration of a scheduler task tick, by task.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task"},
	)

	// ChainHandlerErrorsTotal counts per-chain handler call failures
	// surfaced to (and swallowed by) the scheduler, labeled by chain and
	// operation ("process_initialize", "process_finalize",
	// "process_wormhole_bridging", "check_for_past_deposits",
	// "get_latest_block").
	ChainHandlerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbtc_relayer_chain_handler_errors_total",
			Help: "Chain handler call failures, by chain and operation.",
		},
		[]string{"chain", "operation"},
	)

	// VAAFetchResultTotal counts VAA verification outcomes, labeled by the
	// classified result: "success" or one of the spec §4.5 FailureClass
	// values.
	VAAFetchResultTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbtc_relayer_vaa_fetch_result_total",
			Help: "VAA fetch-and-verify outcomes, by result class.",
		},
		[]string{"result"},
	)

	// DepositStatusTransitionsTotal counts successful deposit state
	// machine transitions, labeled by the destination status.
	DepositStatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbtc_relayer_deposit_status_transitions_total",
			Help: "Successful deposit state machine transitions, by destination status.",
		},
		[]string{"to_status"},
	)

	// CleanupDeletionsTotal counts records removed by the Cleanup Engine,
	// labeled by the status they were deleted from.
	CleanupDeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbtc_relayer_cleanup_deletions_total",
			Help: "Deposit records removed by the cleanup sweep, by status.",
		},
		[]string{"status"},
	)
)

// ObserveTick records a completed scheduler task run: its outcome and how
// long it took. Call with defer and a start time captured at the top of the
// tick function.
func ObserveTick(task string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SchedulerTicksTotal.WithLabelValues(task, outcome).Inc()
	SchedulerTickDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
}
