package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	GuardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_guard_decisions_total",
			Help: "IP admission guard outcomes",
		},
		[]string{"outcome"}, // allowed|blocked|violation|banned
	)

	RateLimitDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_ratelimit_decisions_total",
			Help: "Rate limiter outcomes by route class",
		},
		[]string{"class", "outcome"}, // auth|api , allowed|denied|error
	)

	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_webhook_deliveries_total",
			Help: "Webhook deliveries by terminal state and status code",
		},
		[]string{"state", "code"},
	)

	ReconciliationFlagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_reconciliation_flags_total",
			Help: "Payments flagged for manual or automatic reconciliation",
		},
		[]string{"stage"}, // payment_record|subscription_activation
	)

	ReconciliationReplaysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_reconciliation_replays_total",
			Help: "Reconciliation replay outcomes",
		},
		[]string{"outcome"}, // resolved|failed|abandoned
	)

	ReconciliationPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "paygate_reconciliation_pending",
			Help: "Reconciliation records still waiting for a successful replay",
		},
	)

	SubscriptionActivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_subscription_activations_total",
			Help: "Subscription state changes caused by payments",
		},
		[]string{"kind"}, // created|renewed|superseded|duplicate
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		GuardDecisionsTotal,
		RateLimitDecisionsTotal,
		WebhookDeliveriesTotal,
		ReconciliationFlagsTotal,
		ReconciliationReplaysTotal,
		ReconciliationPending,
		SubscriptionActivationsTotal,
	}
}

// MustRegister registers every collector on r. Collectors already registered
// on r are skipped so the server and worker can share a process in tests.
func MustRegister(r prometheus.Registerer) {
	for _, c := range collectors() {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(err)
		}
	}
}
