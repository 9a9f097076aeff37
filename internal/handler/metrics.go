package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	completionChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "startrail_completion_changes_total",
			Help: "Total number of applied completion toggles by action.",
		},
		[]string{"action"},
	)

	profileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "startrail_profile_operations_total",
			Help: "Total number of profile operations by operation and result.",
		},
		[]string{"op", "result"},
	)

	legacyMigrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "startrail_legacy_migrations_total",
		Help: "Total number of legacy single-session cookies upgraded to a profile list.",
	})
)

func observeProfileOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	profileOperationsTotal.WithLabelValues(op, result).Inc()
}
