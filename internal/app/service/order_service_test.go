package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent []sentMail
	fail bool
}

func (f *fakeMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func setupOrderServiceTest(t *testing.T) (OrderService, *gorm.DB, *fakeMailer, *model.User, *model.Product, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	orderRepo := repository.NewOrderRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	mail := &fakeMailer{}
	orderService := NewOrderService(orderRepo, cartRepo, userRepo, mail, testDB)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         model.RoleUser,
		ShippingInfo: model.ShippingInfo{
			Address:    "12 Main St",
			City:       "Springfield",
			PostalCode: "12345",
			Country:    "USA",
		},
	}
	testDB.Create(user)

	category := &model.Category{Name: "Ceramics"}
	testDB.Create(category)

	mug := &model.Product{
		Name:       "Stoneware Mug",
		Price:      100,
		Stock:      10,
		CategoryID: category.ID,
	}
	testDB.Create(mug)

	vase := &model.Product{
		Name:       "Glazed Vase",
		Price:      150,
		Stock:      5,
		CategoryID: category.ID,
	}
	testDB.Create(vase)

	return orderService, testDB, mail, user, mug, vase
}

func seedCart(t *testing.T, testDB *gorm.DB, userID uint, items ...model.CartItem) *model.Cart {
	t.Helper()
	cart := &model.Cart{UserID: userID}
	require.NoError(t, testDB.Create(cart).Error)
	for i := range items {
		items[i].CartID = cart.ID
		require.NoError(t, testDB.Create(&items[i]).Error)
	}
	return cart
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	orderService, testDB, mail, user, mug, vase := setupOrderServiceTest(t)

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 2, Price: mug.Price},
		model.CartItem{ProductID: vase.ID, Color: "white", Quantity: 1, Price: vase.Price},
	)

	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Equal(t, user.ID, order.UserID)
	// 2*100 + 1*150 + 100 shipping
	assert.Equal(t, float64(450), order.TotalPrice)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Len(t, order.Items, 2)

	// Stock decreased per line
	var updatedMug, updatedVase model.Product
	testDB.First(&updatedMug, mug.ID)
	testDB.First(&updatedVase, vase.ID)
	assert.Equal(t, 8, updatedMug.Stock)
	assert.Equal(t, 4, updatedVase.Stock)

	// Cart deleted outright
	var cartCount int64
	testDB.Model(&model.Cart{}).Where("user_id = ?", user.ID).Count(&cartCount)
	assert.Zero(t, cartCount)

	// Confirmation email went to the customer
	require.Len(t, mail.sent, 1)
	assert.Equal(t, user.Email, mail.sent[0].To)
	assert.Contains(t, mail.sent[0].Body, "Stoneware Mug")
}

func TestOrderService_CreateOrder_EmptyCart(t *testing.T) {
	orderService, _, _, user, _, _ := setupOrderServiceTest(t)

	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, order)
}

func TestOrderService_CreateOrder_EmptyCartCheckedFirst(t *testing.T) {
	orderService, testDB, _, user, _, _ := setupOrderServiceTest(t)

	// No cart AND a blank shipping profile: the cart check wins
	testDB.Model(user).Updates(map[string]interface{}{
		"shipping_address": "", "shipping_city": "", "shipping_postal_code": "", "shipping_country": "",
	})

	order, err := orderService.CreateOrder(user.ID, model.PaymentMethod("bitcoin"), model.PaymentDetails{}, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, order)
}

func TestOrderService_CreateOrder_MissingShippingInfo(t *testing.T) {
	orderService, testDB, _, user, mug, _ := setupOrderServiceTest(t)

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 1, Price: mug.Price},
	)

	// Blank out the saved address and provide nothing at checkout
	testDB.Model(user).Updates(map[string]interface{}{
		"shipping_address": "", "shipping_city": "", "shipping_postal_code": "", "shipping_country": "",
	})

	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	assert.ErrorIs(t, err, ErrMissingShippingInfo)
	assert.Nil(t, order)
}

func TestOrderService_CreateOrder_OverrideShippingAddress(t *testing.T) {
	orderService, testDB, _, user, mug, _ := setupOrderServiceTest(t)

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 1, Price: mug.Price},
	)

	override := &model.ShippingInfo{
		Address:    "99 Market Rd",
		City:       "Shelbyville",
		PostalCode: "67890",
		Country:    "USA",
	}
	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, override)
	require.NoError(t, err)
	assert.Equal(t, "99 Market Rd", order.ShippingAddress.Address)
	assert.Equal(t, "Shelbyville", order.ShippingAddress.City)
}

func TestOrderService_CreateOrder_PaymentValidation(t *testing.T) {
	orderService, testDB, _, user, mug, _ := setupOrderServiceTest(t)

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 1, Price: mug.Price},
	)

	_, err := orderService.CreateOrder(user.ID, model.PaymentMethod("bitcoin"), model.PaymentDetails{}, nil)
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = orderService.CreateOrder(user.ID, model.PaymentCreditCard, model.PaymentDetails{CardNumber: "4111"}, nil)
	assert.ErrorIs(t, err, ErrIncompletePaymentDetails)

	// Card payment with every field goes through
	details := model.PaymentDetails{CardNumber: "4111111111111111", ExpiryDate: "12/30", CVV: "123"}
	order, err := orderService.CreateOrder(user.ID, model.PaymentCreditCard, details, nil)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCreditCard, order.PaymentMethod)
}

func TestOrderService_CreateOrder_InsufficientStock_AllOrNothing(t *testing.T) {
	orderService, testDB, mail, user, mug, vase := setupOrderServiceTest(t)

	// Second line asks for more than the 5 vases in stock
	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 2, Price: mug.Price},
		model.CartItem{ProductID: vase.ID, Color: "white", Quantity: 6, Price: vase.Price},
	)

	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Glazed Vase", stockErr.ProductName)

	// Nothing moved: both stocks intact, cart intact, no order rows
	var updatedMug, updatedVase model.Product
	testDB.First(&updatedMug, mug.ID)
	testDB.First(&updatedVase, vase.ID)
	assert.Equal(t, 10, updatedMug.Stock)
	assert.Equal(t, 5, updatedVase.Stock)

	var orderCount, cartCount int64
	testDB.Model(&model.Order{}).Count(&orderCount)
	testDB.Model(&model.Cart{}).Where("user_id = ?", user.ID).Count(&cartCount)
	assert.Zero(t, orderCount)
	assert.Equal(t, int64(1), cartCount)

	assert.Empty(t, mail.sent)
}

func TestOrderService_CreateOrder_EmailFailureDoesNotFailOrder(t *testing.T) {
	orderService, testDB, mail, user, mug, _ := setupOrderServiceTest(t)
	mail.fail = true

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 1, Price: mug.Price},
	)

	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	orderService, testDB, mail, user, mug, _ := setupOrderServiceTest(t)

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 1, Price: mug.Price},
	)
	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	require.NoError(t, err)
	mail.sent = nil

	updated, err := orderService.UpdateOrderStatus(order.ID, model.OrderStatusShipped, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, updated.Status)

	// Customer is told about the change
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].Body, "Shipped")

	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatus("Lost"), "")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)

	_, err = orderService.UpdateOrderStatus(9999, model.OrderStatusShipped, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_StatusEmail_OnlyForCustomerFacingTransitions(t *testing.T) {
	orderService, testDB, mail, user, mug, _ := setupOrderServiceTest(t)

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 1, Price: mug.Price},
	)
	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	require.NoError(t, err)
	mail.sent = nil

	// Moving the order back to Pending is bookkeeping, not news
	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusShipped, "")
	require.NoError(t, err)
	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusPending, "")
	require.NoError(t, err)
	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusDelivered, "")
	require.NoError(t, err)
	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusCompleted, "")
	require.NoError(t, err)

	require.Len(t, mail.sent, 2)
	assert.Contains(t, mail.sent[0].Body, "Shipped")
	assert.Contains(t, mail.sent[1].Body, "Delivered")
}

func TestOrderService_Cancellation_RequiresNote(t *testing.T) {
	orderService, testDB, _, user, mug, _ := setupOrderServiceTest(t)

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 2, Price: mug.Price},
	)
	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	require.NoError(t, err)

	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusCancelled, "")
	assert.ErrorIs(t, err, ErrMissingCancellationNote)

	// Stock untouched while the cancellation was rejected
	var product model.Product
	testDB.First(&product, mug.ID)
	assert.Equal(t, 8, product.Stock)
}

func TestOrderService_Cancellation_RestoresStockOnce(t *testing.T) {
	orderService, testDB, _, user, mug, _ := setupOrderServiceTest(t)

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 3, Price: mug.Price},
	)
	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	require.NoError(t, err)

	var product model.Product
	testDB.First(&product, mug.ID)
	require.Equal(t, 7, product.Stock)

	updated, err := orderService.UpdateOrderStatus(order.ID, model.OrderStatusCancelled, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, updated.Status)
	assert.Equal(t, "changed my mind", updated.Note)

	testDB.First(&product, mug.ID)
	assert.Equal(t, 10, product.Stock)

	// Cancelling an already cancelled order must not restore again
	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusCancelled, "still cancelled")
	require.NoError(t, err)

	testDB.First(&product, mug.ID)
	assert.Equal(t, 10, product.Stock)
}

func TestOrderService_CancelOrder_OwnershipCheck(t *testing.T) {
	orderService, testDB, _, user, mug, _ := setupOrderServiceTest(t)

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 1, Price: mug.Price},
	)
	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	require.NoError(t, err)

	other := &model.User{Email: "other@example.com", PasswordHash: "hash", Name: "Other"}
	testDB.Create(other)

	_, err = orderService.CancelOrder(other.ID, order.ID, "not mine")
	assert.ErrorIs(t, err, ErrNotOrderOwner)

	cancelled, err := orderService.CancelOrder(user.ID, order.ID, "too slow")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
}

func TestOrderService_DeleteOrder(t *testing.T) {
	orderService, testDB, _, user, mug, _ := setupOrderServiceTest(t)

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: mug.ID, Color: "blue", Quantity: 1, Price: mug.Price},
	)
	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	require.NoError(t, err)

	require.NoError(t, orderService.DeleteOrder(order.ID))

	var orderCount, itemCount int64
	testDB.Model(&model.Order{}).Count(&orderCount)
	testDB.Model(&model.OrderItem{}).Count(&itemCount)
	assert.Zero(t, orderCount)
	assert.Zero(t, itemCount)

	// Deleting does not restore stock
	var product model.Product
	testDB.First(&product, mug.ID)
	assert.Equal(t, 9, product.Stock)

	assert.ErrorIs(t, orderService.DeleteOrder(order.ID), ErrOrderNotFound)
}

func TestOrderService_FullCheckoutScenario(t *testing.T) {
	orderService, testDB, _, user, _, _ := setupOrderServiceTest(t)

	category := &model.Category{Name: "Textiles"}
	testDB.Create(category)
	blanket := &model.Product{
		Name:       "Wool Blanket",
		Price:      500,
		Stock:      10,
		CategoryID: category.ID,
	}
	testDB.Create(blanket)

	seedCart(t, testDB, user.ID,
		model.CartItem{ProductID: blanket.ID, Color: "grey", Quantity: 2, Price: blanket.Price},
	)

	order, err := orderService.CreateOrder(user.ID, model.PaymentCashOnDelivery, model.PaymentDetails{}, nil)
	require.NoError(t, err)

	// 2*500 + 100 shipping
	assert.Equal(t, float64(1100), order.TotalPrice)

	var product model.Product
	testDB.First(&product, blanket.ID)
	assert.Equal(t, 8, product.Stock)

	var cartCount int64
	testDB.Model(&model.Cart{}).Where("user_id = ?", user.ID).Count(&cartCount)
	assert.Zero(t, cartCount)
}

func TestOrderService_GetSalesStats(t *testing.T) {
	orderService, testDB, _, user, mug, _ := setupOrderServiceTest(t)

	seedOrder := func(status model.OrderStatus, total float64, createdAt time.Time) {
		order := &model.Order{
			UserID:        user.ID,
			TotalPrice:    total,
			PaymentMethod: model.PaymentCashOnDelivery,
			Status:        status,
			Items: []model.OrderItem{
				{ProductID: mug.ID, Color: "blue", Quantity: 1, Price: total},
			},
		}
		require.NoError(t, testDB.Create(order).Error)
		require.NoError(t, testDB.Model(&model.Order{}).Where("id = ?", order.ID).
			Update("created_at", createdAt).Error)
	}

	seedOrder(model.OrderStatusDelivered, 300, time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC))
	seedOrder(model.OrderStatusDelivered, 200, time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC))
	seedOrder(model.OrderStatusDelivered, 450, time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC))
	// Only delivered orders count toward revenue
	seedOrder(model.OrderStatusPending, 999, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	seedOrder(model.OrderStatusCancelled, 999, time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC))

	stats, err := orderService.GetSalesStats(nil, nil)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "2026-03", stats[0].Month)
	assert.Equal(t, float64(500), stats[0].TotalSales)
	assert.Equal(t, "2026-04", stats[1].Month)
	assert.Equal(t, float64(450), stats[1].TotalSales)

	// Narrowed to March only
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	stats, err = orderService.GetSalesStats(&start, &end)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "2026-03", stats[0].Month)

	// A range with no delivered orders comes back empty
	start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
	stats, err = orderService.GetSalesStats(&start, &end)
	require.NoError(t, err)
	assert.Empty(t, stats)
}
