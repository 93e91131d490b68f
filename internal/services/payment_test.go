package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tijara/internal/models"
)

func paymentFixture(t *testing.T) (*OrderService, *PaymentService, *models.Order, *countingMailer) {
	t.Helper()

	db := newTestDB(t)
	storage := newMemStorage()
	queue := newNoopQueue(t)
	mailer := &countingMailer{}
	orders := NewOrderService(db, storage, queue, 60000)
	payments := NewPaymentService(db, mailer, queue, NewPDFInvoiceRenderer("Tijara", "SDG"), storage,
		"test-secret", "http://test.local", time.Hour)

	user := seedUser(t, db, "+249800000001", true)
	product := seedProduct(t, db, "Perfume", 1500, 10)
	addToCart(t, db, user, product, 1)

	order, err := orders.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-PAY-1",
		Address:       ShippingAddress{Country: "Sudan", City: "Port Sudan", Street: "Harbor Road"},
	})
	require.NoError(t, err)

	return orders, payments, order, mailer
}

func TestApprovePayment(t *testing.T) {
	_, payments, order, mailer := paymentFixture(t)

	approved, err := payments.Approve(order.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusVerified, approved.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, approved.Status)

	// Exactly one approval mail, carrying the invoice.
	require.Equal(t, 1, mailer.count())
	require.Len(t, mailer.sent[0].Attachments, 1)
	assert.Equal(t, "application/pdf", mailer.sent[0].Attachments[0].ContentType)
}

func TestApprovePaymentTwice(t *testing.T) {
	_, payments, order, mailer := paymentFixture(t)

	_, err := payments.Approve(order.ID)
	require.NoError(t, err)

	_, err = payments.Approve(order.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	// The refused second approval must not mail the customer again.
	assert.Equal(t, 1, mailer.count())
}

func TestApprovePaymentRejectsCODOrder(t *testing.T) {
	orders, payments, _, _ := paymentFixture(t)

	user := seedUser(t, payments.db, "+249800000002", true)
	product := seedProduct(t, payments.db, "Soap", 500, 10)
	addToCart(t, payments.db, user, product, 1)

	codOrder, err := orders.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodCOD,
		Address:       ShippingAddress{Country: "Sudan", City: "Port Sudan", Street: "Harbor Road"},
	})
	require.NoError(t, err)

	_, err = payments.Approve(codOrder.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestRejectPayment(t *testing.T) {
	_, payments, order, _ := paymentFixture(t)

	rejected, err := payments.Reject(order.ID, "amount mismatch")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusFailed, rejected.PaymentStatus)
	assert.Equal(t, models.OrderStatusCancelled, rejected.Status)
	assert.Equal(t, "amount mismatch", rejected.RejectionReason)
}

func TestEditLinkResolvesOrder(t *testing.T) {
	_, payments, order, _ := paymentFixture(t)

	link, err := payments.EditLink(order.ID)
	require.NoError(t, err)
	require.Contains(t, link, "http://test.local/api/payments/edit?token=")

	token := link[len("http://test.local/api/payments/edit?token="):]
	resolved, err := payments.OrderForEditToken(token)
	require.NoError(t, err)
	assert.Equal(t, order.ID, resolved.ID)
}

func TestOrderForEditTokenRejectsGarbage(t *testing.T) {
	_, payments, _, _ := paymentFixture(t)

	_, err := payments.OrderForEditToken("not-a-token")
	var authz *AuthorizationError
	require.ErrorAs(t, err, &authz)
}

func TestResubmitPayment(t *testing.T) {
	_, payments, order, _ := paymentFixture(t)

	_, err := payments.Reject(order.ID, "wrong reference")
	require.NoError(t, err)

	link, err := payments.EditLink(order.ID)
	require.NoError(t, err)
	token := link[len("http://test.local/api/payments/edit?token="):]

	resubmitted, err := payments.Resubmit(token, "TX-PAY-NEW", []byte("receipt"), "receipt.jpg")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusAwaitingApproval, resubmitted.PaymentStatus)
	require.NotNil(t, resubmitted.TransactionID)
	assert.Equal(t, "TX-PAY-NEW", *resubmitted.TransactionID)
	assert.NotEmpty(t, resubmitted.ReceiptPath)
	// Fulfillment state stays where the rejection left it.
	assert.Equal(t, models.OrderStatusCancelled, resubmitted.Status)
}

func TestResubmitRequiresFailedPayment(t *testing.T) {
	_, payments, order, _ := paymentFixture(t)

	link, err := payments.EditLink(order.ID)
	require.NoError(t, err)
	token := link[len("http://test.local/api/payments/edit?token="):]

	_, err = payments.Resubmit(token, "TX-PAY-X", nil, "")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestResubmitRejectsUsedTransactionID(t *testing.T) {
	orders, payments, order, _ := paymentFixture(t)

	other := seedUser(t, payments.db, "+249800000003", true)
	product := seedProduct(t, payments.db, "Candle", 300, 10)
	addToCart(t, payments.db, other, product, 1)
	_, err := orders.Create(other, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-TAKEN",
		Address:       ShippingAddress{Country: "Sudan", City: "Port Sudan", Street: "Harbor Road"},
	})
	require.NoError(t, err)

	_, err = payments.Reject(order.ID, "blurry receipt")
	require.NoError(t, err)

	link, err := payments.EditLink(order.ID)
	require.NoError(t, err)
	token := link[len("http://test.local/api/payments/edit?token="):]

	_, err = payments.Resubmit(token, "TX-TAKEN", nil, "")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}
