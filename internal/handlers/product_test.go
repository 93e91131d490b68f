package handlers

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/middleware"
	"github.com/example/tijara/internal/models"
	"github.com/example/tijara/internal/services"
)

func newProductTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	cfg := testConfig()
	storage := services.NewLocalStorage(t.TempDir(), "http://test.local")

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	h := NewProductHandler(db, storage)
	app.Get("/products", middleware.OptionalAuthMiddleware(cfg), h.ListProducts)
	return app
}

func TestListProductsUsesPreferredCurrency(t *testing.T) {
	db := newHandlerTestDB(t)
	app := newProductTestApp(t, db)

	user := &models.User{FirstName: "Amira", Phone: "+249920000001", PasswordHash: "x", PreferredCurrency: "USD"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Perfume", Price: 10000, Stock: 5}).Error)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/products", bearerFor(t, testConfig(), user.ID), nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "USD", body["currency"])
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, 17.0, data[0].(map[string]interface{})["price"])
}

func TestListProductsAnonymousFallsBackToDefault(t *testing.T) {
	db := newHandlerTestDB(t)
	app := newProductTestApp(t, db)

	require.NoError(t, db.Create(&models.Product{Name: "Perfume", Price: 10000, Stock: 5}).Error)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/products", "", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "SDG", body["currency"])
}

func TestListProductsQueryParamOverridesPreference(t *testing.T) {
	db := newHandlerTestDB(t)
	app := newProductTestApp(t, db)

	user := &models.User{FirstName: "Amira", Phone: "+249920000002", PasswordHash: "x", PreferredCurrency: "USD"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Perfume", Price: 10000, Stock: 5}).Error)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/products?currency=EGP", bearerFor(t, testConfig(), user.ID), nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "EGP", body["currency"])
}
