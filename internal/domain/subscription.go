package domain

import (
	"time"

	"github.com/google/uuid"
)

// Названия тарифов. Tier носит информационный характер,
// на логику подтверждения не влияет.
const (
	TierMonthly = "Monthly"
	DefaultTier = TierMonthly
)

// MonthlyPeriod длительность тарифа Monthly.
// Срок действия подписки при подтверждении checkout-а
// выводится из серверного времени хранилища + период тарифа.
const MonthlyPeriod = 30 * 24 * time.Hour

// Subscription представляет подписку пользователя.
// На одного пользователя одновременно допускается не более одной
// записи с Subscribed = true.
type Subscription struct {
	ID               uuid.UUID `json:"id" db:"id"`
	UserID           string    `json:"user_id" db:"user_id"`                     // Владелец; неизменяем
	Email            string    `json:"email" db:"email"`                         // Контактный email на момент покупки
	PaymentReference string    `json:"payment_reference" db:"payment_reference"` // ID клиента/сессии в платежном шлюзе
	Subscribed       bool      `json:"subscribed" db:"subscribed"`
	Tier             string    `json:"tier" db:"tier"`
	Amount           float64   `json:"amount" db:"amount"` // В основных единицах валюты (шлюз передает минорные)
	SubscriptionEnd  time.Time `json:"subscription_end" db:"subscription_end"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// CheckoutRequest запрос на создание платежной сессии.
// Amount в минорных единицах валюты (центы).
type CheckoutRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"required"`
	UserID   string `json:"user_id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// RenewalRequest запрос на продление/апгрейд существующей подписки.
// Amount в минорных единицах; NewSubscriptionEnd - дата нового окончания.
type RenewalRequest struct {
	SubscriptionID     string `json:"subscription_id" validate:"required"`
	NewSubscriptionEnd string `json:"new_subscription_end" validate:"required"`
	Amount             int64  `json:"amount" validate:"required,gt=0"`
	Currency           string `json:"currency" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	UserID             string `json:"user_id" validate:"required"`
}

// CheckoutResponse ответ на создание платежной сессии.
type CheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// MinorToMajor переводит сумму из минорных единиц валюты в основные.
// Конвертация выполняется ровно один раз - на границе персистентности.
func MinorToMajor(minor int64) float64 {
	return float64(minor) / 100
}
