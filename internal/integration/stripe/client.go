package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/pkg/logger"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// CheckoutSessionParams параметры hosted checkout-сессии.
// AmountMinor в минорных единицах - это контракт шлюза.
type CheckoutSessionParams struct {
	AmountMinor   int64
	Currency      string
	ProductName   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Client определяет методы взаимодействия с платежным шлюзом.
type Client interface {
	// CreateCheckoutSession открывает hosted checkout-сессию и возвращает
	// ее ID и URL для редиректа браузера.
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*domain.CheckoutResponse, error)

	// GetCheckoutSession запрашивает у шлюза авторитетное состояние сессии.
	// Единственный источник правды об оплате: параметры редиректа браузера
	// доказательством не считаются.
	GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error)

	// VerifyWebhook проверяет подпись вебхука и возвращает событие.
	// При несовпадении подписи - domain.ErrInvalidSignature.
	VerifyWebhook(payload []byte, sigHeader string) (*domain.WebhookEvent, error)
}

// stripeClient реализует интерфейс Client поверх Stripe SDK.
type stripeClient struct {
	client        *client.API
	webhookSecret string
	log           *logger.Logger
}

// NewClient создает новый экземпляр клиента Stripe.
func NewClient(apiKey, webhookSecret string, log *logger.Logger) Client {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &stripeClient{
		client:        sc,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// CreateCheckoutSession открывает hosted checkout-сессию в Stripe.
func (sc *stripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams) (*domain.CheckoutResponse, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(p.Currency)),
					UnitAmount: stripe.Int64(p.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := sc.client.CheckoutSessions.New(params)
	if err != nil {
		logStripeError(sc.log, "CreateCheckoutSession", err)
		return nil, domain.NewGatewayError("CreateCheckoutSession", err)
	}

	sc.log.Infow("Stripe checkout session created", "sessionID", sess.ID)
	return &domain.CheckoutResponse{ID: sess.ID, URL: sess.URL}, nil
}

// GetCheckoutSession запрашивает состояние сессии у Stripe.
func (sc *stripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := sc.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		logStripeError(sc.log, "GetCheckoutSession", err)
		return nil, domain.NewGatewayError("GetCheckoutSession", err)
	}

	return mapCheckoutSession(sess), nil
}

// VerifyWebhook проверяет подпись события и парсит его.
func (sc *stripeClient) VerifyWebhook(payload []byte, sigHeader string) (*domain.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, sc.webhookSecret)
	if err != nil {
		sc.log.Warnw("Webhook signature verification failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	return mapWebhookEvent(&event), nil
}

// logStripeError - вспомогательная функция для логирования деталей ошибки Stripe.
func logStripeError(log *logger.Logger, operation string, err error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		log.Errorw("Stripe API error",
			"operation", operation,
			"type", string(stripeErr.Type),
			"code", string(stripeErr.Code),
			"message", stripeErr.Msg,
			"request_id", stripeErr.RequestID,
			"status_code", stripeErr.HTTPStatusCode,
		)
	} else {
		log.Errorw("Non-Stripe error during Stripe operation",
			"operation", operation,
			"error", err,
		)
	}
}
