// Package metrics defines and registers the dashboard's Prometheus metrics.
// All metrics live on the default registry and are served by Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agency"

// GateDecisionsTotal counts access gate outcomes.
// Labels:
//   - outcome: "allow", "pending", "redirect_login" or "redirect_home"
//   - module: the guarded module, or "any" for sign-in-only routes
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of access gate decisions, by outcome and module.",
	},
	[]string{"outcome", "module"},
)

// StageTransitionsTotal counts lead stage changes that were persisted.
var StageTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_stage_transitions_total",
		Help:      "Total number of persisted lead stage transitions.",
	},
	[]string{"from", "to"},
)

// PipelineReconciliationsTotal counts full refetches of the lead view.
// Label:
//   - reason: "stage_change_failed", "manual" or "list"
var PipelineReconciliationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_reconciliations_total",
		Help:      "Total number of lead view reconciliations by full refetch.",
	},
	[]string{"reason"},
)

// LeadsCreatedTotal counts created leads by source.
var LeadsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leads_created_total",
		Help:      "Total number of leads created, by source.",
	},
	[]string{"source"},
)

// PendingFollowUps is the size of the last follow-up scan.
var PendingFollowUps = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_follow_ups",
		Help:      "Number of leads with a due follow-up at the last scan.",
	},
)

// EventsHandledTotal counts pipeline event handler runs.
// Label:
//   - result: "ok" or "error"
var EventsHandledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_handled_total",
		Help:      "Total number of event handler runs, by event type and result.",
	},
	[]string{"event_type", "result"},
)

func Handler() http.Handler {
	return promhttp.Handler()
}
