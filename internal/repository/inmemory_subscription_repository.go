package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/google/uuid"
)

// InMemorySubscriptionRepository реализация хранилища подписок в памяти.
// Воспроизводит контракт PostgreSQL-репозитория, включая уникальность
// пары (user_id, payment_reference); используется в тестах.
type InMemorySubscriptionRepository struct {
	subscriptions map[uuid.UUID]domain.Subscription
	mutex         sync.RWMutex
	log           *logger.Logger

	// Now подменяет часы хранилища в тестах; по умолчанию time.Now.
	Now func() time.Time
}

// NewInMemorySubscriptionRepository создает новый репозиторий подписок в памяти.
func NewInMemorySubscriptionRepository(log *logger.Logger) *InMemorySubscriptionRepository {
	return &InMemorySubscriptionRepository{
		subscriptions: make(map[uuid.UUID]domain.Subscription),
		log:           log,
		Now:           time.Now,
	}
}

// GetActiveByUserID возвращает активную подписку пользователя.
func (r *InMemorySubscriptionRepository) GetActiveByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, sub := range r.subscriptions {
		if sub.UserID == userID && sub.Subscribed {
			found := sub
			return &found, nil
		}
	}

	return nil, domain.ErrNotFound
}

// GetByID возвращает подписку по ID.
func (r *InMemorySubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sub, exists := r.subscriptions[id]
	if !exists {
		return nil, domain.ErrNotFound
	}

	found := sub
	return &found, nil
}

// Create вставляет новую подписку.
func (r *InMemorySubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Уникальное ограничение (user_id, payment_reference)
	for _, existing := range r.subscriptions {
		if existing.UserID == sub.UserID && existing.PaymentReference == sub.PaymentReference {
			return nil, domain.ErrDuplicate
		}
	}

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.CreatedAt = r.Now()
	sub.UpdatedAt = sub.CreatedAt

	r.subscriptions[sub.ID] = *sub

	return sub, nil
}

// UpdateByID помечает подписку оплаченной.
func (r *InMemorySubscriptionRepository) UpdateByID(ctx context.Context, id uuid.UUID, userID string, amount float64, subscriptionEnd time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	sub, exists := r.subscriptions[id]
	if !exists || sub.UserID != userID {
		return domain.ErrNotFound
	}

	sub.Subscribed = true
	sub.Amount = amount
	sub.SubscriptionEnd = subscriptionEnd
	sub.UpdatedAt = r.Now()
	r.subscriptions[id] = sub

	return nil
}

// ServerTime возвращает текущее время хранилища.
func (r *InMemorySubscriptionRepository) ServerTime(ctx context.Context) (time.Time, error) {
	return r.Now(), nil
}

// Count возвращает число записей (вспомогательный метод для тестов).
func (r *InMemorySubscriptionRepository) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.subscriptions)
}
