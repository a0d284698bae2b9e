package models

import "github.com/lib/pq"

// User represents a phone-number owner. A user exists only after a first
// successful OTP verification for their number.
type User struct {
	BaseModel
	MobileNumber string `gorm:"uniqueIndex:idx_users_identity" json:"mobile_number"`
	CountryCode  string `gorm:"uniqueIndex:idx_users_identity" json:"country_code"`
	Name         string `json:"name"`
}

// Company represents a business registered in the directory. Companies
// authenticate with the API key issued once at registration; only its bcrypt
// hash is stored.
type Company struct {
	BaseModel
	CompanyName     string         `json:"company_name"`
	Domain          string         `gorm:"uniqueIndex" json:"domain"`
	Intent          *string        `json:"intent,omitempty"`
	ServicesOffered pq.StringArray `gorm:"type:text[]" json:"services_offered"`
	APIKeyHash      string         `json:"-"`
}
