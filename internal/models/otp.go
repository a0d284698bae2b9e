package models

import "time"

// OTPChallenge is one issued one-time code for a phone identity.
//
// At most one challenge per (mobile_number, country_code) may be unverified
// with a future expiry; issuing a new code voids all prior unverified ones.
type OTPChallenge struct {
	BaseModel
	MobileNumber string    `gorm:"index:idx_otp_identity" json:"mobile_number"`
	CountryCode  string    `gorm:"index:idx_otp_identity" json:"country_code"`
	Code         string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsVerified   bool      `json:"is_verified"`
	Attempts     int       `json:"attempts"`
	MaxAttempts  int       `json:"max_attempts"`
}

// Expired reports whether the challenge expiry has passed at the given time.
func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
