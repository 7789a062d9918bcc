package stripe

import (
	"github.com/hayaat-app/payment-service/internal/domain"

	"github.com/stripe/stripe-go/v78"
)

// mapCheckoutSession переводит сессию Stripe во внутреннее представление.
func mapCheckoutSession(s *stripe.CheckoutSession) *domain.CheckoutSession {
	sess := &domain.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		Status:        string(s.Status),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}

	if s.Customer != nil {
		sess.CustomerRef = s.Customer.ID
	}

	// Email покупателя: заполненные детали приоритетнее поля запроса
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		sess.CustomerEmail = s.CustomerDetails.Email
	} else {
		sess.CustomerEmail = s.CustomerEmail
	}

	return sess
}

// mapWebhookEvent переводит проверенное событие Stripe во внутреннее представление.
func mapWebhookEvent(e *stripe.Event) *domain.WebhookEvent {
	return &domain.WebhookEvent{
		ID:   e.ID,
		Type: string(e.Type),
		Data: e.Data.Raw,
	}
}
