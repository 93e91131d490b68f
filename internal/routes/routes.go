package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/config"
	"github.com/example/tijara/internal/handlers"
	"github.com/example/tijara/internal/middleware"
	"github.com/example/tijara/internal/models"
	"github.com/example/tijara/internal/services"
)

// Deps carries the collaborators the routes need. main constructs them once
// and hands them over.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	OTP      *services.OTPService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Storage  services.Storage
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, d Deps) {
	authHandler := handlers.NewAuthHandler(d.DB, d.Config, d.OTP)
	catalogHandler := handlers.NewCatalogHandler(d.DB)
	productHandler := handlers.NewProductHandler(d.DB, d.Storage)
	cartHandler := handlers.NewCartHandler(d.DB)
	orderHandler := handlers.NewOrderHandler(d.DB, d.Orders, d.Payments)
	reviewHandler := handlers.NewReviewHandler(d.DB)
	profileHandler := handlers.NewProfileHandler(d.DB, d.OTP)
	adminHandler := handlers.NewAdminHandler(d.DB, d.Orders, d.Payments, d.Storage)
	couponHandler := handlers.NewCouponHandler(d.DB)
	offerHandler := handlers.NewOfferHandler(d.DB)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/otp/send", authHandler.SendOTP)
	auth.Post("/otp/verify", authHandler.VerifyOTP)

	// Public catalog; a bearer token is optional and only personalizes the
	// display currency.
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/products", middleware.OptionalAuthMiddleware(d.Config), productHandler.ListProducts)
	api.Get("/products/:id", middleware.OptionalAuthMiddleware(d.Config), productHandler.GetProduct)
	api.Get("/products/:id/reviews", reviewHandler.ListReviews)

	// Guest payment fixes authorized by the signed link alone
	api.Get("/payments/edit", orderHandler.GetPaymentEdit)
	api.Put("/payments/edit", orderHandler.UpdatePaymentEdit)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(d.Config))

	protected.Get("/cart", cartHandler.ListCart)
	protected.Post("/cart", cartHandler.AddToCart)
	protected.Put("/cart/:productId", cartHandler.UpdateCartItem)
	protected.Delete("/cart/:productId", cartHandler.RemoveCartItem)

	protected.Get("/favorites", cartHandler.ListFavorites)
	protected.Post("/favorites/:productId", cartHandler.ToggleFavorite)

	protected.Get("/checkout", orderHandler.CheckoutSummary)
	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	protected.Post("/products/:id/reviews", reviewHandler.CreateReview)
	protected.Post("/reviews/:reviewId/reactions", reviewHandler.ReactToReview)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)

	// Back office, gated per capability scope
	admin := api.Group("/admin", middleware.AuthMiddleware(d.Config))

	adminProducts := admin.Group("", middleware.RequireScope(d.DB, models.ScopeProducts))
	adminProducts.Post("/products", productHandler.CreateProduct)
	adminProducts.Put("/products/:id", productHandler.UpdateProduct)
	adminProducts.Delete("/products/:id", productHandler.DeleteProduct)
	adminProducts.Post("/categories", catalogHandler.CreateCategory)
	adminProducts.Put("/categories/:id", catalogHandler.UpdateCategory)
	adminProducts.Delete("/categories/:id", catalogHandler.DeleteCategory)

	adminOffers := admin.Group("", middleware.RequireScope(d.DB, models.ScopeOffers))
	adminOffers.Get("/offers", offerHandler.ListOffers)
	adminOffers.Post("/offers", offerHandler.CreateOffer)
	adminOffers.Put("/offers/:id", offerHandler.UpdateOffer)
	adminOffers.Delete("/offers/:id", offerHandler.DeleteOffer)

	adminCoupons := admin.Group("", middleware.RequireScope(d.DB, models.ScopeCoupons))
	adminCoupons.Get("/coupons", couponHandler.ListCoupons)
	adminCoupons.Post("/coupons", couponHandler.CreateCoupon)
	adminCoupons.Put("/coupons/:id", couponHandler.UpdateCoupon)
	adminCoupons.Delete("/coupons/:id", couponHandler.DeleteCoupon)

	adminOrders := admin.Group("", middleware.RequireScope(d.DB, models.ScopeOrders))
	adminOrders.Get("/orders", adminHandler.ListAllOrders)
	adminOrders.Get("/orders/:id", adminHandler.GetOrderAdmin)
	adminOrders.Put("/orders/:id/status", adminHandler.UpdateOrderStatus)
	adminOrders.Post("/orders/:id/payment/approve", adminHandler.ApprovePayment)
	adminOrders.Post("/orders/:id/payment/reject", adminHandler.RejectPayment)

	adminUsers := admin.Group("", middleware.RequireScope(d.DB, models.ScopeUsers))
	adminUsers.Get("/users", adminHandler.ListAllUsers)

	master := admin.Group("", middleware.RequireMasterAdmin(d.DB))
	master.Put("/users/:id/scopes", adminHandler.UpdateUserScopes)
}
