package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestType distinguishes how the user proves their number.
type RequestType string

const (
	RequestTypeOTP             RequestType = "otp"
	RequestTypeNumberSelection RequestType = "number_selection"
)

// ValidRequestType reports whether t is a known request type.
func ValidRequestType(t RequestType) bool {
	return t == RequestTypeOTP || t == RequestTypeNumberSelection
}

// RequestStatus is the lifecycle state of a verification request.
type RequestStatus string

const (
	StatusUserActionPending RequestStatus = "user_action_pending"
	StatusRequestSent       RequestStatus = "request_sent"
	StatusRequestDisplayed  RequestStatus = "request_displayed"
	StatusRequestOpened     RequestStatus = "request_opened"
	StatusUserRejected      RequestStatus = "user_rejected"
	StatusCompleted         RequestStatus = "completed"
	StatusExpired           RequestStatus = "expired"
	StatusLimitExceeded     RequestStatus = "limit_exceeded"
)

// Terminal reports whether s admits no further transitions.
func (s RequestStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusExpired, StatusUserRejected:
		return true
	}
	return false
}

// requestTransitions is the full status graph. request_sent and
// request_displayed are driven by delivery-tracking collaborators;
// limit_exceeded has no inbound edge in this service but must round-trip.
var requestTransitions = map[RequestStatus][]RequestStatus{
	StatusUserActionPending: {StatusRequestOpened, StatusUserRejected, StatusExpired},
	StatusRequestSent:       {StatusRequestDisplayed, StatusRequestOpened, StatusUserRejected, StatusExpired},
	StatusRequestDisplayed:  {StatusRequestOpened, StatusUserRejected, StatusExpired},
	StatusRequestOpened:     {StatusCompleted, StatusUserRejected, StatusExpired},
	StatusLimitExceeded:     {},
	StatusUserRejected:      {},
	StatusCompleted:         {},
	StatusExpired:           {},
}

// CanTransition reports whether the status graph allows moving from s to next.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// VerificationRequest is a company-initiated request that a user confirm
// ownership of their number. expiry_time is fixed at creation.
type VerificationRequest struct {
	BaseModel
	UserID      uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	CompanyID   uuid.UUID     `gorm:"type:uuid;index" json:"company_id"`
	RequestType RequestType   `json:"request_type"`
	Status      RequestStatus `gorm:"index" json:"status"`
	ExpiryTime  time.Time     `json:"expiry_time"`

	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}
