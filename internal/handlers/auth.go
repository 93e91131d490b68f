package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/config"
	"github.com/example/tijara/internal/models"
	"github.com/example/tijara/internal/services"
	"github.com/example/tijara/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
	otp *services.OTPService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, otp *services.OTPService) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, otp: otp}
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Register creates a new user account and kicks off phone verification.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Phone == "" || req.Password == "" || req.FirstName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	var existing models.User
	if err := h.db.Where("phone = ?", req.Phone).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "user already exists")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		Email:             req.Email,
		PasswordHash:      passwordHash,
		PreferredCurrency: h.cfg.DefaultCurrency,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	// Verification code is best-effort at registration; the user can request
	// another from the verify screen.
	if err := h.otp.Send(req.Phone); err != nil {
		log.Printf("[Auth] initial OTP send failed for %s: %v", req.Phone, err)
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":         user.ID,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"phone":      user.Phone,
			"email":      user.Email,
		},
		"token": token,
	})
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("phone = ?", req.Phone).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":             user.ID,
			"first_name":     user.FirstName,
			"last_name":      user.LastName,
			"phone":          user.Phone,
			"phone_verified": user.PhoneVerified(),
		},
		"token": token,
	})
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

// SendOTP dispatches a verification code, throttled per phone.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone is required")
	}

	if err := h.otp.Send(req.Phone); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "verification code sent"})
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyOTP validates a submitted verification code.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Phone == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone and code are required")
	}

	if _, err := h.otp.Verify(req.Phone, req.Code); err != nil {
		var invalid *services.InvalidCodeError
		switch {
		case errors.Is(err, services.ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, "verification code not found")
		case errors.Is(err, services.ErrTooManyAttempts):
			return fiber.NewError(fiber.StatusTooManyRequests, "too many attempts")
		case errors.As(err, &invalid):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success":       false,
				"error":         "invalid verification code",
				"attempts_left": invalid.AttemptsLeft,
			})
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "verified": true})
}
