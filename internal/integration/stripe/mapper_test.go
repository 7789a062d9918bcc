package stripe

import (
	"testing"

	"github.com/hayaat-app/payment-service/internal/domain"
	stripego "github.com/stripe/stripe-go/v78"
	"github.com/stretchr/testify/assert"
)

func TestMapCheckoutSession(t *testing.T) {
	s := &stripego.CheckoutSession{
		ID:            "cs_1",
		URL:           "https://gateway.example/pay",
		PaymentStatus: stripego.CheckoutSessionPaymentStatusPaid,
		Status:        stripego.CheckoutSessionStatusComplete,
		AmountTotal:   999,
		Currency:      stripego.CurrencyGBP,
		Customer:      &stripego.Customer{ID: "cus_1"},
		CustomerEmail: "requested@b.com",
		CustomerDetails: &stripego.CheckoutSessionCustomerDetails{
			Email: "actual@b.com",
		},
		Metadata: map[string]string{domain.MetaUserID: "u1"},
	}

	sess := mapCheckoutSession(s)
	assert.Equal(t, "cs_1", sess.ID)
	assert.Equal(t, "paid", sess.PaymentStatus)
	assert.Equal(t, "complete", sess.Status)
	assert.Equal(t, int64(999), sess.AmountTotal)
	assert.Equal(t, "gbp", sess.Currency)
	assert.Equal(t, "cus_1", sess.CustomerRef)
	// Фактический email покупателя важнее указанного при создании
	assert.Equal(t, "actual@b.com", sess.CustomerEmail)
	assert.Equal(t, "u1", sess.Metadata[domain.MetaUserID])
	assert.True(t, sess.IsPaid())
	assert.Equal(t, "cus_1", sess.PaymentReference())
}

func TestMapCheckoutSession_NoCustomer(t *testing.T) {
	s := &stripego.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: stripego.CheckoutSessionPaymentStatusUnpaid,
		Status:        stripego.CheckoutSessionStatusOpen,
		CustomerEmail: "requested@b.com",
	}

	sess := mapCheckoutSession(s)
	assert.Empty(t, sess.CustomerRef)
	assert.Equal(t, "requested@b.com", sess.CustomerEmail)
	assert.False(t, sess.IsPaid())
	// Без клиента ссылкой платежа служит сама сессия
	assert.Equal(t, "cs_1", sess.PaymentReference())
}

func TestMapWebhookEvent(t *testing.T) {
	e := &stripego.Event{
		ID:   "evt_1",
		Type: stripego.EventType("checkout.session.completed"),
		Data: &stripego.EventData{Raw: []byte(`{"id":"cs_1"}`)},
	}

	event := mapWebhookEvent(e)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, domain.EventCheckoutCompleted, event.Type)
	assert.Equal(t, `{"id":"cs_1"}`, string(event.Data))
}
