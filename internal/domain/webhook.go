package domain

// EventCheckoutCompleted единственный тип события шлюза, на который
// сервис реагирует. Остальные типы подтверждаются без побочных эффектов,
// чтобы шлюз не перепосылал их.
const EventCheckoutCompleted = "checkout.session.completed"

// WebhookEvent проверенное (подпись сошлась) событие платежного шлюза.
type WebhookEvent struct {
	ID   string
	Type string
	Data []byte // Сырой JSON объекта события
}
