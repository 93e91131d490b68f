package models

import "time"

// Verification keeps track of OTP codes sent to phone numbers. A nil Code marks
// a synthetic pre-verified record. Multiple records per phone may exist; only
// the most recent non-expired one is authoritative.
type Verification struct {
	BaseModel
	Phone     string    `gorm:"index" json:"phone"`
	Code      *string   `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
	Verified  bool      `json:"verified"`
}

// Expired reports whether the record is past its expiry.
func (v *Verification) Expired(now time.Time) bool {
	return v.ExpiresAt.Before(now)
}
