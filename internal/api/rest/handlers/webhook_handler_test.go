package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/internal/integration/stripe"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// stubGateway двойник шлюза: здесь важна только проверка подписи.
type stubGateway struct {
	event     *domain.WebhookEvent
	verifyErr error
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, p stripe.CheckoutSessionParams) (*domain.CheckoutResponse, error) {
	return nil, nil
}

func (g *stubGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	return nil, nil
}

func (g *stubGateway) VerifyWebhook(payload []byte, sigHeader string) (*domain.WebhookEvent, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.event, nil
}

// stubWebhookService двойник сервиса вебхуков.
type stubWebhookService struct {
	err      error
	gotEvent *domain.WebhookEvent
}

func (s *stubWebhookService) HandleEvent(ctx context.Context, event *domain.WebhookEvent) error {
	s.gotEvent = event
	return s.err
}

func newWebhookRouter(gateway *stubGateway, svc *stubWebhookService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(gateway, svc, newTestLogger())

	r := gin.New()
	r.POST("/stripeWebhook", h.Handle)
	return r
}

func TestWebhookHandle_Success(t *testing.T) {
	gateway := &stubGateway{event: &domain.WebhookEvent{ID: "evt_1", Type: domain.EventCheckoutCompleted, Data: []byte(`{}`)}}
	svc := &stubWebhookService{}
	r := newWebhookRouter(gateway, svc)

	req := httptest.NewRequest("POST", "/stripeWebhook", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "evt_1", svc.gotEvent.ID)
}

func TestWebhookHandle_InvalidSignature(t *testing.T) {
	gateway := &stubGateway{verifyErr: domain.ErrInvalidSignature}
	svc := &stubWebhookService{}
	r := newWebhookRouter(gateway, svc)

	req := httptest.NewRequest("POST", "/stripeWebhook", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// Непрошедшее проверку событие не обрабатывается
	assert.Nil(t, svc.gotEvent)
}

func TestWebhookHandle_StoreFailureReturns500(t *testing.T) {
	gateway := &stubGateway{event: &domain.WebhookEvent{ID: "evt_1", Type: domain.EventCheckoutCompleted, Data: []byte(`{}`)}}
	svc := &stubWebhookService{err: domain.NewStoreError("webhook update", assert.AnError)}
	r := newWebhookRouter(gateway, svc)

	req := httptest.NewRequest("POST", "/stripeWebhook", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// 500 отдает ретрай на откуп шлюзу
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookHandle_OversizedBodyRejected(t *testing.T) {
	gateway := &stubGateway{}
	r := newWebhookRouter(gateway, &stubWebhookService{})

	req := httptest.NewRequest("POST", "/stripeWebhook", strings.NewReader(strings.Repeat("x", maxWebhookBodyBytes+1)))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
