package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tijara/internal/models"
)

func newOrderService(t *testing.T) (*OrderService, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	svc := NewOrderService(newTestDB(t), storage, newNoopQueue(t), 60000)
	return svc, storage
}

func portSudanAddress() ShippingAddress {
	return ShippingAddress{Country: "Sudan", City: "Port Sudan", Street: "Harbor Road"}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000001", true)

	_, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-1",
		Address:       portSudanAddress(),
	})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "cart", validation.Field)
}

func TestCreateOrderRequiresAddress(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000002", true)
	product := seedProduct(t, svc.db, "Soap", 500, 10)
	addToCart(t, svc.db, user, product, 1)

	_, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-2",
	})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "address", validation.Field)
}

func TestCreateBankakOrder(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000003", false)
	product := seedProduct(t, svc.db, "Perfume", 1500, 5)
	addToCart(t, svc.db, user, product, 2)

	order, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-3",
		Address:       portSudanAddress(),
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusAwaitingApproval, order.PaymentStatus)
	assert.Equal(t, 3000.0, order.Total)
	require.NotNil(t, order.TransactionID)
	assert.Equal(t, "TX-3", *order.TransactionID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Perfume", order.Items[0].ProductName)
	assert.Equal(t, 1500.0, order.Items[0].UnitPrice)

	// Stock decremented, cart cleared.
	var fresh models.Product
	require.NoError(t, svc.db.First(&fresh, "id = ?", product.ID).Error)
	assert.Equal(t, 3, fresh.Stock)

	var cartCount int64
	svc.db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&cartCount)
	assert.Zero(t, cartCount)
}

func TestCreateBankakOrderRequiresTransactionID(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000004", false)
	product := seedProduct(t, svc.db, "Soap", 500, 10)
	addToCart(t, svc.db, user, product, 1)

	_, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		Address:       portSudanAddress(),
	})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "transaction_id", validation.Field)
}

func TestCreateOrderDuplicateOwnTransaction(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000005", false)
	product := seedProduct(t, svc.db, "Oud", 2000, 10)
	addToCart(t, svc.db, user, product, 1)

	first, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-5",
		Address:       portSudanAddress(),
	})
	require.NoError(t, err)

	addToCart(t, svc.db, user, product, 1)
	again, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-5",
		Address:       portSudanAddress(),
	})
	require.ErrorIs(t, err, ErrDuplicateOwnTransaction)
	require.NotNil(t, again)
	assert.Equal(t, first.ID, again.ID)
}

func TestCreateOrderDuplicateForeignTransaction(t *testing.T) {
	svc, _ := newOrderService(t)
	owner := seedUser(t, svc.db, "+249700000006", false)
	other := seedUser(t, svc.db, "+249700000007", false)
	product := seedProduct(t, svc.db, "Oud", 2000, 10)

	addToCart(t, svc.db, owner, product, 1)
	_, err := svc.Create(owner, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-6",
		Address:       portSudanAddress(),
	})
	require.NoError(t, err)

	addToCart(t, svc.db, other, product, 1)
	_, err = svc.Create(other, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-6",
		Address:       portSudanAddress(),
	})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000008", false)
	product := seedProduct(t, svc.db, "Candle", 300, 1)
	addToCart(t, svc.db, user, product, 3)

	_, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-7",
		Address:       portSudanAddress(),
	})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Reason, "Candle")
}

func TestCreateOrderAppliesCoupon(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000009", false)
	product := seedProduct(t, svc.db, "Perfume", 1000, 10)
	addToCart(t, svc.db, user, product, 2)

	limit := 5
	coupon := models.Coupon{Code: "SAVE10", Type: models.CouponTypePercent, Value: 10, UseLimit: &limit}
	require.NoError(t, svc.db.Create(&coupon).Error)

	order, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-8",
		CouponCode:    "save10",
		Address:       portSudanAddress(),
	})
	require.NoError(t, err)

	assert.Equal(t, 2000.0, order.Subtotal)
	assert.Equal(t, 200.0, order.Discount)
	assert.Equal(t, 1800.0, order.Total)

	var fresh models.Coupon
	require.NoError(t, svc.db.First(&fresh, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, fresh.UsedCount)
}

func TestCreateOrderIgnoresExhaustedCoupon(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000010", false)
	product := seedProduct(t, svc.db, "Perfume", 1000, 10)
	addToCart(t, svc.db, user, product, 1)

	limit := 1
	coupon := models.Coupon{Code: "GONE", Type: models.CouponTypeFixed, Value: 100, UseLimit: &limit, UsedCount: 1}
	require.NoError(t, svc.db.Create(&coupon).Error)

	order, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodBankak,
		TransactionID: "TX-9",
		CouponCode:    "GONE",
		Address:       portSudanAddress(),
	})
	require.NoError(t, err)

	assert.Zero(t, order.Discount)
	assert.Nil(t, order.CouponID)
}

func TestCreateCODOrderRequiresVerifiedPhone(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000011", false)
	product := seedProduct(t, svc.db, "Soap", 500, 10)
	addToCart(t, svc.db, user, product, 1)

	_, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodCOD,
		Address:       portSudanAddress(),
	})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "phone", validation.Field)
}

func TestCreateCODOrderOutsidePortSudan(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000012", true)
	product := seedProduct(t, svc.db, "Soap", 500, 10)
	addToCart(t, svc.db, user, product, 1)

	address := portSudanAddress()
	address.City = "Khartoum"
	_, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodCOD,
		Address:       address,
	})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Reason, "Port Sudan")
}

func TestCreateCODOrder(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000013", true)
	product := seedProduct(t, svc.db, "Soap", 500, 10)
	addToCart(t, svc.db, user, product, 2)

	order, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodCOD,
		Address:       portSudanAddress(),
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPendingDelivery, order.PaymentStatus)
	assert.Nil(t, order.TransactionID)
}

func TestUpdateStatusDeliveredSettlesCOD(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000014", true)
	product := seedProduct(t, svc.db, "Soap", 500, 10)
	addToCart(t, svc.db, user, product, 1)

	order, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodCOD,
		Address:       portSudanAddress(),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(order.ID, models.OrderStatusDelivered, nil)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusDelivered, updated.Status)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	require.NotNil(t, updated.PaymentReceivedAmount)
	assert.Equal(t, order.Total, *updated.PaymentReceivedAmount)
}

func TestUpdateStatusTerminalGuard(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000015", true)
	product := seedProduct(t, svc.db, "Soap", 500, 10)
	addToCart(t, svc.db, user, product, 1)

	order, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodCOD,
		Address:       portSudanAddress(),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(order.ID, models.OrderStatusDelivered, nil)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(order.ID, models.OrderStatusShipped, nil)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	svc, _ := newOrderService(t)
	user := seedUser(t, svc.db, "+249700000016", true)
	product := seedProduct(t, svc.db, "Soap", 500, 10)
	addToCart(t, svc.db, user, product, 1)

	order, err := svc.Create(user, OrderInput{
		PaymentMethod: models.PaymentMethodCOD,
		Address:       portSudanAddress(),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(order.ID, "misplaced", nil)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}
