package service

import (
	"context"
	"testing"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionGetActive(t *testing.T) {
	log := newTestLogger()
	repo := repository.NewInMemorySubscriptionRepository(log)
	svc := NewSubscriptionService(repo, log)

	_, err := repo.Create(context.Background(), &domain.Subscription{
		UserID:           "u1",
		Email:            "a@b.com",
		PaymentReference: "cus_u1",
		Subscribed:       true,
		Tier:             domain.TierMonthly,
		Amount:           9.99,
	})
	require.NoError(t, err)

	t.Run("own subscription", func(t *testing.T) {
		sub, err := svc.GetActive(context.Background(), "u1", "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", sub.UserID)
		assert.True(t, sub.Subscribed)
	})

	t.Run("foreign subscription", func(t *testing.T) {
		_, err := svc.GetActive(context.Background(), "u2", "u1")
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("no active subscription", func(t *testing.T) {
		_, err := svc.GetActive(context.Background(), "u2", "u2")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
