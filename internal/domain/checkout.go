package domain

// Статусы checkout-сессии платежного шлюза, которые важны для подтверждения.
const (
	PaymentStatusPaid     = "paid"
	SessionStatusComplete = "complete"
)

// Ключи метаданных платежной сессии.
// Все минорные суммы в метаданных хранятся минорными: перевод в основные
// единицы происходит только при записи в хранилище.
const (
	MetaUserID             = "user_id"
	MetaTier               = "tier"
	MetaSubscriptionID     = "subscription_id"
	MetaNewSubscriptionEnd = "new_subscription_end"
	MetaAmount             = "amount"
)

// CheckoutSession представление платежной сессии шлюза внутри сервиса.
// Заполняется маппером из ответа Stripe; обработчики никогда не смотрят
// в сырые параметры редиректа, только в этот объект.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string // "paid", "unpaid", "no_payment_required"
	Status        string // "open", "complete", "expired"
	AmountTotal   int64  // В минорных единицах
	Currency      string
	CustomerRef   string // ID клиента в шлюзе, если есть
	CustomerEmail string
	Metadata      map[string]string
}

// IsPaid истинно, когда шлюз подтвердил и оплату, и завершение сессии.
func (s *CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == PaymentStatusPaid && s.Status == SessionStatusComplete
}

// PaymentReference возвращает идентификатор для аудита и поиска дублей:
// ID клиента шлюза, либо ID самой сессии, если клиент не создавался.
func (s *CheckoutSession) PaymentReference() string {
	if s.CustomerRef != "" {
		return s.CustomerRef
	}
	return s.ID
}
