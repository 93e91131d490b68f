package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tijara/internal/models"
)

func latestCode(t *testing.T, svc *OTPService, phone string) string {
	t.Helper()

	var record models.Verification
	require.NoError(t, svc.db.Where("phone = ?", phone).
		Order("created_at desc").First(&record).Error)
	require.NotNil(t, record.Code)
	return *record.Code
}

func TestOTPSendStoresSixDigitCode(t *testing.T) {
	db := newTestDB(t)
	sms := &recordingSMS{}
	svc := NewOTPService(db, sms, time.Minute, 10*time.Minute, 100)

	require.NoError(t, svc.Send("+249111111111"))

	code := latestCode(t, svc, "+249111111111")
	assert.Len(t, code, 6)
	assert.Len(t, sms.sent, 1)
	assert.Contains(t, sms.texts[0], code)
}

func TestOTPSendThrottled(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db, &recordingSMS{}, time.Minute, 10*time.Minute, 100)

	require.NoError(t, svc.Send("+249222222222"))

	err := svc.Send("+249222222222")
	var throttled *ThrottledError
	require.ErrorAs(t, err, &throttled)
	assert.Greater(t, throttled.RetryAfter, time.Duration(0))
}

func TestOTPVerifyWithoutCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db, &recordingSMS{}, time.Minute, 10*time.Minute, 100)

	_, err := svc.Verify("+249333333333", "123456")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOTPVerifyWrongCodeCountsAttempts(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db, &recordingSMS{}, time.Minute, 10*time.Minute, 2)
	phone := "+249444444444"

	require.NoError(t, svc.Send(phone))
	code := latestCode(t, svc, phone)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err := svc.Verify(phone, wrong)
	var invalid *InvalidCodeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.AttemptsLeft)

	_, err = svc.Verify(phone, wrong)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 0, invalid.AttemptsLeft)

	// Ceiling reached: even the right code is refused now.
	_, err = svc.Verify(phone, code)
	assert.True(t, errors.Is(err, ErrTooManyAttempts))
}

func TestOTPVerifySuccessStampsUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db, &recordingSMS{}, time.Minute, 10*time.Minute, 100)
	phone := "+249555555555"
	seedUser(t, db, phone, false)

	require.NoError(t, svc.Send(phone))
	code := latestCode(t, svc, phone)

	record, err := svc.Verify(phone, code)
	require.NoError(t, err)
	assert.True(t, record.Verified)

	var user models.User
	require.NoError(t, db.Where("phone = ?", phone).First(&user).Error)
	assert.True(t, user.PhoneVerified())

	recent, err := svc.RecentlyVerified(phone, time.Minute)
	require.NoError(t, err)
	assert.True(t, recent)
}

func TestOTPRecentlyVerifiedExpiresWithWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db, &recordingSMS{}, time.Minute, 10*time.Minute, 100)
	phone := "+249666666666"

	require.NoError(t, svc.Send(phone))
	_, err := svc.Verify(phone, latestCode(t, svc, phone))
	require.NoError(t, err)

	recent, err := svc.RecentlyVerified(phone, -time.Second)
	require.NoError(t, err)
	assert.False(t, recent)
}
