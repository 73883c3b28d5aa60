package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	InscriptionsCreated *prometheus.CounterVec
	DuplicatesRejected  prometheus.Counter
	PaymentsCreated     prometheus.Counter
	PaymentsConfirmed   *prometheus.CounterVec
	WebhookEvents       *prometheus.CounterVec
	GatewayErrors       prometheus.Counter
	EventsClosed        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return newWithRegisterer(prometheus.DefaultRegisterer)
}

// NewForTesting registers against a private registry so parallel test suites
// do not collide on the default registerer.
func NewForTesting() *Metrics {
	return newWithRegisterer(prometheus.NewRegistry())
}

func newWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InscriptionsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inscrito_inscriptions_created_total",
			Help: "Inscriptions created, partitioned by registrant kind.",
		}, []string{"kind"}),
		DuplicatesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "inscrito_inscriptions_duplicates_rejected_total",
			Help: "Registration attempts rejected by the duplicate-prevention protocol.",
		}),
		PaymentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "inscrito_payments_created_total",
			Help: "Local payment records created against gateway charges.",
		}),
		PaymentsConfirmed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inscrito_payments_confirmed_total",
			Help: "Payments confirmed, partitioned by reconciliation path (webhook, poll, manual).",
		}, []string{"path"}),
		WebhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inscrito_webhook_events_total",
			Help: "Gateway webhook deliveries, partitioned by outcome.",
		}, []string{"outcome"}),
		GatewayErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "inscrito_gateway_errors_total",
			Help: "Failed calls to the payment gateway.",
		}),
		EventsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inscrito_events_closed_total",
			Help: "Events closed, partitioned by trigger (manual, expired).",
		}, []string{"trigger"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inscrito_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
