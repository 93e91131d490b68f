package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/middleware"
	"github.com/example/tijara/internal/models"
	"github.com/example/tijara/internal/services"
	"github.com/example/tijara/internal/utils"
)

// phoneAdoptionWindow bounds how old a verification may be when a profile
// update adopts a new phone number.
const phoneAdoptionWindow = 15 * time.Minute

// ProfileHandler manages the authenticated user's own record.
type ProfileHandler struct {
	db  *gorm.DB
	otp *services.OTPService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB, otp *services.OTPService) *ProfileHandler {
	return &ProfileHandler{db: db, otp: otp}
}

// GetProfile returns the current user.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": profileResponse(user)})
}

type updateProfileRequest struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	PreferredCurrency string `json:"preferred_currency"`
	Country           string `json:"country"`
	Street            string `json:"street"`
	Building          string `json:"building"`
	Floor             string `json:"floor"`
	Landmark          string `json:"landmark"`
	City              string `json:"city"`
}

// UpdateProfile updates profile fields. Changing the phone number requires a
// recent verification of the new number; the caller verifies it via the OTP
// endpoints first, then submits the change.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.FirstName != "" {
		updates["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		updates["last_name"] = req.LastName
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Country != "" {
		updates["country"] = req.Country
	}
	if req.Street != "" {
		updates["street"] = req.Street
	}
	if req.Building != "" {
		updates["building"] = req.Building
	}
	if req.Floor != "" {
		updates["floor"] = req.Floor
	}
	if req.Landmark != "" {
		updates["landmark"] = req.Landmark
	}
	if req.City != "" {
		updates["city"] = req.City
	}

	if req.PreferredCurrency != "" {
		updates["preferred_currency"] = utils.NormalizeCurrency(req.PreferredCurrency)
	}

	if req.Phone != "" && req.Phone != user.Phone {
		verified, err := h.otp.RecentlyVerified(req.Phone, phoneAdoptionWindow)
		if err != nil {
			return err
		}
		if !verified {
			return &services.ValidationError{Field: "phone", Reason: "new phone number must be verified first"}
		}

		var other models.User
		err = h.db.Where("phone = ? AND id <> ?", req.Phone, user.ID).First(&other).Error
		if err == nil {
			return fiber.NewError(fiber.StatusConflict, "phone number already in use")
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		updates["phone"] = req.Phone
		updates["phone_verified_at"] = time.Now()
	}

	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	if err := h.db.Model(user).Updates(updates).Error; err != nil {
		return err
	}

	if err := h.db.First(user, "id = ?", user.ID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": profileResponse(user)})
}

func (h *ProfileHandler) currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return &user, nil
}

func profileResponse(u *models.User) fiber.Map {
	return fiber.Map{
		"id":                 u.ID,
		"first_name":         u.FirstName,
		"last_name":          u.LastName,
		"phone":              u.Phone,
		"phone_verified":     u.PhoneVerified(),
		"email":              u.Email,
		"preferred_currency": u.PreferredCurrency,
		"country":            u.Country,
		"street":             u.Street,
		"building":           u.Building,
		"floor":              u.Floor,
		"landmark":           u.Landmark,
		"city":               u.City,
		"is_admin":           u.IsAdmin,
	}
}
