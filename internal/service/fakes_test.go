package service

import (
	"context"
	"errors"
	"io"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/internal/integration/stripe"
	"github.com/hayaat-app/payment-service/pkg/logger"
)

func newTestLogger() *logger.Logger {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return log
}

// stubGateway управляемый двойник платежного шлюза.
type stubGateway struct {
	sessions    map[string]*domain.CheckoutSession
	createResp  *domain.CheckoutResponse
	createErr   error
	getErr      error
	createCalls int
	lastParams  stripe.CheckoutSessionParams
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		sessions:   make(map[string]*domain.CheckoutSession),
		createResp: &domain.CheckoutResponse{ID: "cs_test_1", URL: "https://gateway.example/pay/cs_test_1"},
	}
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, p stripe.CheckoutSessionParams) (*domain.CheckoutResponse, error) {
	g.createCalls++
	g.lastParams = p
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.createResp, nil
}

func (g *stubGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	sess, ok := g.sessions[sessionID]
	if !ok {
		return nil, domain.NewGatewayError("get checkout session", errors.New("no such session"))
	}
	return sess, nil
}

func (g *stubGateway) VerifyWebhook(payload []byte, sigHeader string) (*domain.WebhookEvent, error) {
	return nil, errors.New("not implemented in stub")
}

// stubProducer записывает опубликованные события.
type stubProducer struct {
	activated []*domain.Subscription
	renewed   []*domain.Subscription
	err       error
}

func (p *stubProducer) PublishSubscriptionActivated(ctx context.Context, sub *domain.Subscription) error {
	if p.err != nil {
		return p.err
	}
	p.activated = append(p.activated, sub)
	return nil
}

func (p *stubProducer) PublishSubscriptionRenewed(ctx context.Context, sub *domain.Subscription) error {
	if p.err != nil {
		return p.err
	}
	p.renewed = append(p.renewed, sub)
	return nil
}

func (p *stubProducer) Close() error { return nil }

// stubCache кеш обработанных сессий в памяти.
type stubCache struct {
	processed map[string]bool
	err       error
}

func newStubCache() *stubCache {
	return &stubCache{processed: make(map[string]bool)}
}

func (c *stubCache) IsProcessed(ctx context.Context, sessionID string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.processed[sessionID], nil
}

func (c *stubCache) MarkProcessed(ctx context.Context, sessionID string) error {
	if c.err != nil {
		return c.err
	}
	c.processed[sessionID] = true
	return nil
}

func (c *stubCache) Close() error { return nil }
