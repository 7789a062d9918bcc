package repository

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoFixture() *InMemorySubscriptionRepository {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return NewInMemorySubscriptionRepository(log)
}

func TestCreate_UniqueUserPaymentReference(t *testing.T) {
	repo := newRepoFixture()
	ctx := context.Background()

	sub := &domain.Subscription{
		UserID:           "u1",
		Email:            "a@b.com",
		PaymentReference: "cus_1",
		Subscribed:       true,
	}
	_, err := repo.Create(ctx, sub)
	require.NoError(t, err)

	// Тот же (user_id, payment_reference) - нарушение уникальности
	_, err = repo.Create(ctx, &domain.Subscription{
		UserID:           "u1",
		PaymentReference: "cus_1",
	})
	require.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, 1, repo.Count())

	// Тот же reference у другого пользователя - допустимо
	_, err = repo.Create(ctx, &domain.Subscription{
		UserID:           "u2",
		PaymentReference: "cus_1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Count())
}

func TestGetActiveByUserID_IgnoresInactive(t *testing.T) {
	repo := newRepoFixture()
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.Subscription{
		UserID:           "u1",
		PaymentReference: "cus_1",
		Subscribed:       false,
	})
	require.NoError(t, err)

	_, err = repo.GetActiveByUserID(ctx, "u1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateByID_ScopedToOwner(t *testing.T) {
	repo := newRepoFixture()
	ctx := context.Background()

	sub, err := repo.Create(ctx, &domain.Subscription{
		UserID:           "u1",
		PaymentReference: "cus_1",
	})
	require.NoError(t, err)

	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Чужой user_id не проходит, даже при верном ID строки
	err = repo.UpdateByID(ctx, sub.ID, "u2", 19.99, end)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.UpdateByID(ctx, sub.ID, "u1", 19.99, end))

	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, got.Subscribed)
	assert.Equal(t, 19.99, got.Amount)
	assert.Equal(t, end, got.SubscriptionEnd)
}

func TestUpdateByID_UnknownRow(t *testing.T) {
	repo := newRepoFixture()

	err := repo.UpdateByID(context.Background(), uuid.New(), "u1", 19.99, time.Now())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServerTime_UsesInjectedClock(t *testing.T) {
	repo := newRepoFixture()
	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time { return fixed }

	got, err := repo.ServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixed, got)
}
