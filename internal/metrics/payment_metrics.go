package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics интерфейс для метрик платежного цикла
type PaymentMetrics interface {
	IncCheckoutSessionCreated(flow string)
	IncSubscriptionCommitted(path string)
	IncConfirmationFailed(reason string)
	IncWebhookEvent(eventType string, handled bool)
	ObserveCommittedAmount(amount float64, tier string)
}

type paymentMetrics struct {
	sessionsCreated      *prometheus.CounterVec
	commits              *prometheus.CounterVec
	confirmationFailures *prometheus.CounterVec
	webhookEvents        *prometheus.CounterVec
	committedAmount      *prometheus.HistogramVec
}

// NewPaymentMetrics создает новые метрики платежного цикла
func NewPaymentMetrics(registry *prometheus.Registry) PaymentMetrics {
	sessionsCreated := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_created_total",
			Help: "The total number of created checkout sessions",
		},
		[]string{"flow"}, // checkout | renewal
	)

	commits := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_committed_total",
			Help: "The total number of committed subscriptions by trigger path",
		},
		[]string{"path"}, // redirect | webhook | renewal
	)

	confirmationFailures := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "confirmation_failures_total",
			Help: "The total number of failed confirmations by reason",
		},
		[]string{"reason"},
	)

	webhookEvents := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "The total number of received webhook events",
		},
		[]string{"type", "handled"},
	)

	committedAmount := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subscription_committed_amount",
			Help:    "Committed subscription amounts distribution (major units)",
			Buckets: prometheus.ExponentialBuckets(1, 4, 6),
		},
		[]string{"tier"},
	)

	return &paymentMetrics{
		sessionsCreated:      sessionsCreated,
		commits:              commits,
		confirmationFailures: confirmationFailures,
		webhookEvents:        webhookEvents,
		committedAmount:      committedAmount,
	}
}

// IncCheckoutSessionCreated увеличивает счетчик созданных сессий
func (m *paymentMetrics) IncCheckoutSessionCreated(flow string) {
	m.sessionsCreated.WithLabelValues(flow).Inc()
}

// IncSubscriptionCommitted увеличивает счетчик закоммиченных подписок
func (m *paymentMetrics) IncSubscriptionCommitted(path string) {
	m.commits.WithLabelValues(path).Inc()
}

// IncConfirmationFailed увеличивает счетчик неуспешных подтверждений
func (m *paymentMetrics) IncConfirmationFailed(reason string) {
	m.confirmationFailures.WithLabelValues(reason).Inc()
}

// IncWebhookEvent увеличивает счетчик событий вебхуков
func (m *paymentMetrics) IncWebhookEvent(eventType string, handled bool) {
	handledLabel := "false"
	if handled {
		handledLabel = "true"
	}
	m.webhookEvents.WithLabelValues(eventType, handledLabel).Inc()
}

// ObserveCommittedAmount записывает сумму закоммиченной подписки
func (m *paymentMetrics) ObserveCommittedAmount(amount float64, tier string) {
	m.committedAmount.WithLabelValues(tier).Observe(amount)
}
