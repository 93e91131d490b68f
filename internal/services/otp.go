package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/example/tijara/internal/models"
)

// ErrTooManyAttempts is returned once the attempt ceiling for a code is hit.
var ErrTooManyAttempts = errors.New("too many verification attempts")

// InvalidCodeError reports a wrong code and how many attempts remain.
type InvalidCodeError struct {
	AttemptsLeft int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid verification code, %d attempts left", e.AttemptsLeft)
}

// OTPService generates, throttles, and validates one-time phone codes. Both
// the send throttle and the attempt ceiling are enforced through the database,
// so they hold across server processes.
type OTPService struct {
	db          *gorm.DB
	sms         SMSSender
	throttle    time.Duration
	expiry      time.Duration
	maxAttempts int
}

// NewOTPService constructs an OTPService.
func NewOTPService(db *gorm.DB, sms SMSSender, throttle, expiry time.Duration, maxAttempts int) *OTPService {
	return &OTPService{
		db:          db,
		sms:         sms,
		throttle:    throttle,
		expiry:      expiry,
		maxAttempts: maxAttempts,
	}
}

// Send generates a 6-digit code for the phone and dispatches it. A second send
// within the throttle window fails with ThrottledError. Transport failures are
// logged but do not fail the operation; the stored code remains valid.
func (s *OTPService) Send(phone string) error {
	now := time.Now()

	var latest models.Verification
	err := s.db.Where("phone = ? AND expires_at > ?", phone, now).
		Order("created_at desc").
		First(&latest).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		if elapsed := now.Sub(latest.CreatedAt); elapsed < s.throttle {
			return &ThrottledError{RetryAfter: s.throttle - elapsed}
		}
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	verification := models.Verification{
		Phone:     phone,
		Code:      &code,
		ExpiresAt: now.Add(s.expiry),
	}
	if err := s.db.Create(&verification).Error; err != nil {
		return err
	}

	if _, err := s.sms.SendText(phone, fmt.Sprintf("Your verification code is %s", code)); err != nil {
		log.Printf("[OTP] delivery to %s failed: %v", phone, err)
	}

	return nil
}

// Verify checks a submitted code against the most recent non-expired record
// for the phone. On success the record is marked verified and, when the phone
// belongs to a user account, the user's phone_verified_at is stamped.
func (s *OTPService) Verify(phone, code string) (*models.Verification, error) {
	now := time.Now()

	var record models.Verification
	err := s.db.Where("phone = ? AND expires_at > ?", phone, now).
		Order("created_at desc").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if record.Attempts >= s.maxAttempts {
		return nil, ErrTooManyAttempts
	}

	if record.Code == nil || *record.Code != code {
		if err := s.db.Model(&record).
			UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
			return nil, err
		}
		left := s.maxAttempts - record.Attempts - 1
		if left < 0 {
			left = 0
		}
		return nil, &InvalidCodeError{AttemptsLeft: left}
	}

	record.Verified = true
	if err := s.db.Model(&record).Update("verified", true).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.User{}).
		Where("phone = ?", phone).
		Update("phone_verified_at", now).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

// RecentlyVerified reports whether the phone has a verified record newer than
// the given window. Profile updates use it to adopt a phone number verified
// before the account held it.
func (s *OTPService) RecentlyVerified(phone string, window time.Duration) (bool, error) {
	var count int64
	err := s.db.Model(&models.Verification{}).
		Where("phone = ? AND verified = ? AND updated_at > ?", phone, true, time.Now().Add(-window)).
		Count(&count).Error
	return count > 0, err
}

// generateOTPCode returns a random 6-digit code in [100000, 999999].
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
