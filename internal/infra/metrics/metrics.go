package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_stage_transitions_total",
			Help: "Stage transitions by outcome (moved, noop, aborted, failed)",
		},
		[]string{"outcome"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_cache_lookups_total",
			Help: "Cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)

	orphanedLeads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_orphaned_leads_total",
			Help: "Leads hidden from the board because their stage is outside the funnel",
		},
	)

	messagesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_stage_messages_total",
			Help: "Stage messages by timing and result",
		},
		[]string{"timing", "result"},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

func RecordStageTransition(outcome string) {
	stageTransitions.WithLabelValues(outcome).Inc()
}

func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}

func RecordOrphanedLeads(n int) {
	orphanedLeads.Add(float64(n))
}

func RecordStageMessage(timing, result string) {
	messagesDispatched.WithLabelValues(timing, result).Inc()
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
