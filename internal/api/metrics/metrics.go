// Package metrics defines and registers all custom Prometheus metrics for
// KPI Central. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto and are exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kpi_central"

// ── Security pipeline ────────────────────────────────────────────────────────

// SecurityDecisionsTotal counts the outcome of every wrapped request.
// Labels:
//   - action:  the route's action label (e.g. "kpi.list")
//   - outcome: "allowed" or the failure reason (e.g. "forbidden-role")
var SecurityDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "security_decisions_total",
		Help:      "Total number of authorization decisions, by action and outcome.",
	},
	[]string{"action", "outcome"},
)

// TokenRejectionsTotal counts token verification failures.
// Label:
//   - kind: "bad_header", "malformed", "invalid_signature" or "expired"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of rejected bearer tokens, by failure kind.",
	},
	[]string{"kind"},
)

// RateLimitChecksTotal counts rate limit checks.
// Labels:
//   - preset: "default", "auth" or "strict"
//   - result: "allowed", "rejected" or "error" (store failure, request let through)
var RateLimitChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_checks_total",
		Help:      "Total number of rate limit checks, by preset and result.",
	},
	[]string{"preset", "result"},
)

// ── Audit trail ──────────────────────────────────────────────────────────────

// AuditRecordsTotal counts access records by delivery result.
// Label:
//   - result: "written", "failed" or "dropped" (queue full)
var AuditRecordsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_records_total",
		Help:      "Total number of access records, by delivery result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of records waiting in each worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of access records pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── KPIs ─────────────────────────────────────────────────────────────────────

// KPIsCreatedTotal counts newly defined KPIs by department.
var KPIsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "kpis_created_total",
		Help:      "Total number of KPIs created, by department.",
	},
	[]string{"department"},
)

// KPIReviewsTotal counts admin reviews.
// Label:
//   - verdict: "approved" or "rejected"
var KPIReviewsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "kpi_reviews_total",
		Help:      "Total number of KPI reviews, by verdict.",
	},
	[]string{"verdict"},
)
