package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// stubSubscriptionService двойник сервиса чтения подписок.
type stubSubscriptionService struct {
	sub *domain.Subscription
	err error
}

func (s *stubSubscriptionService) GetActive(ctx context.Context, principalID, userID string) (*domain.Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sub, nil
}

func newSubscriptionRouter(svc *stubSubscriptionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSubscriptionHandler(svc, newTestLogger())

	r := gin.New()
	r.GET("/subscriptions/:user_id", asPrincipal("u1"), h.GetActive)
	return r
}

func TestSubscriptionGetActive_Success(t *testing.T) {
	svc := &stubSubscriptionService{sub: &domain.Subscription{UserID: "u1", Subscribed: true, Tier: domain.TierMonthly}}
	r := newSubscriptionRouter(svc)

	req := httptest.NewRequest("GET", "/subscriptions/u1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subscribed":true`)
}

func TestSubscriptionGetActive_Forbidden(t *testing.T) {
	r := newSubscriptionRouter(&stubSubscriptionService{err: domain.ErrForbidden})

	req := httptest.NewRequest("GET", "/subscriptions/u2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubscriptionGetActive_NotFound(t *testing.T) {
	r := newSubscriptionRouter(&stubSubscriptionService{err: domain.ErrNotFound})

	req := httptest.NewRequest("GET", "/subscriptions/u1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
