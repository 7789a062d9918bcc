package service

import (
	"context"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/internal/repository"
	"github.com/hayaat-app/payment-service/pkg/logger"
)

// SubscriptionService чтение состояния подписки.
type SubscriptionService interface {
	// GetActive возвращает активную подписку пользователя. Пользователь
	// видит только свою: несовпадение principal-а - domain.ErrForbidden.
	GetActive(ctx context.Context, principalID, userID string) (*domain.Subscription, error)
}

type subscriptionService struct {
	repo repository.SubscriptionRepository
	log  *logger.Logger
}

// NewSubscriptionService создает новый сервис чтения подписок.
func NewSubscriptionService(repo repository.SubscriptionRepository, log *logger.Logger) SubscriptionService {
	return &subscriptionService{repo: repo, log: log}
}

func (s *subscriptionService) GetActive(ctx context.Context, principalID, userID string) (*domain.Subscription, error) {
	s.log.Debug("Getting active subscription for user: %s", userID)

	if principalID != userID {
		s.log.Warn("Subscription read mismatch: principal %s, requested %s", principalID, userID)
		return nil, domain.ErrForbidden
	}

	sub, err := s.repo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
