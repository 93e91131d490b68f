package handlers

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tijara/internal/middleware"
	"github.com/example/tijara/internal/models"
)

func TestAddToCartAccumulatesQuantity(t *testing.T) {
	db := newHandlerTestDB(t)
	cfg := testConfig()

	user := &models.User{FirstName: "Amira", Phone: "+249900000001", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	product := &models.Product{Name: "Perfume", Price: 1500, Stock: 10}
	require.NoError(t, db.Create(product).Error)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/cart", middleware.AuthMiddleware(cfg), NewCartHandler(db).AddToCart)
	bearer := bearerFor(t, cfg, user.ID)

	for _, qty := range []int{2, 3} {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/cart", bearer, map[string]interface{}{
			"product_id": product.ID.String(),
			"quantity":   qty,
		}))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// Both calls land on the same row with summed quantity.
	var items []models.CartItem
	require.NoError(t, db.Where("user_id = ? AND product_id = ?", user.ID, product.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddToCartOutOfStockProduct(t *testing.T) {
	db := newHandlerTestDB(t)
	cfg := testConfig()

	user := &models.User{FirstName: "Amira", Phone: "+249900000002", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	product := &models.Product{Name: "Candle", Price: 300, Stock: 0}
	require.NoError(t, db.Create(product).Error)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/cart", middleware.AuthMiddleware(cfg), NewCartHandler(db).AddToCart)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/cart", bearerFor(t, cfg, user.ID), map[string]interface{}{
		"product_id": product.ID.String(),
		"quantity":   1,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
