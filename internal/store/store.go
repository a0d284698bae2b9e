// Package store defines the persistence boundary for users, companies, OTP
// challenges, and verification requests. All mutation of these entities goes
// through these interfaces; implementations own the atomicity each method
// promises.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/truenumber/internal/models"
)

// ErrNotFound is returned by lookups that match no record.
var ErrNotFound = errors.New("store: record not found")

// ErrConflict is returned when a guarded update finds the record already
// changed by a concurrent writer.
var ErrConflict = errors.New("store: concurrent modification")

// ChallengeStore persists OTP challenges.
type ChallengeStore interface {
	// Active returns the newest unverified challenge with a future expiry for
	// the identity, or ErrNotFound.
	Active(ctx context.Context, mobileNumber, countryCode string) (*models.OTPChallenge, error)

	// Issue voids every unverified challenge for the identity and inserts ch,
	// both within a single transaction.
	Issue(ctx context.Context, ch *models.OTPChallenge) error

	// FindByCode returns the newest unverified challenge for the identity
	// whose code matches, regardless of expiry, or ErrNotFound.
	FindByCode(ctx context.Context, mobileNumber, countryCode, code string) (*models.OTPChallenge, error)

	// Consume atomically increments attempts and marks the challenge
	// verified. It returns ErrConflict if the challenge was already verified
	// by a concurrent call.
	Consume(ctx context.Context, id uuid.UUID) (*models.OTPChallenge, error)

	// PurgeExpired deletes challenges whose expiry passed before the cutoff
	// and returns the number of rows removed.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByIdentity(ctx context.Context, mobileNumber, countryCode string) (*models.User, error)
}

// CompanyStore persists the company directory.
type CompanyStore interface {
	Create(ctx context.Context, c *models.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetByDomain(ctx context.Context, domain string) (*models.Company, error)
	List(ctx context.Context, limit, offset int) ([]models.Company, error)
	Update(ctx context.Context, c *models.Company) error
}

// RequestStore persists verification requests.
type RequestStore interface {
	Create(ctx context.Context, r *models.VerificationRequest) error

	// Get returns the request with its user and company loaded.
	Get(ctx context.Context, id uuid.UUID) (*models.VerificationRequest, error)

	// PendingForUser returns user_action_pending requests with a future
	// expiry, newest first, with companies loaded.
	PendingForUser(ctx context.Context, userID uuid.UUID) ([]models.VerificationRequest, error)

	// ForCompany returns the company's requests newest first, with users
	// loaded.
	ForCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]models.VerificationRequest, error)

	// Transition moves the request from status from to status to. The update
	// is guarded on the current status; ErrConflict means a concurrent writer
	// got there first.
	Transition(ctx context.Context, id uuid.UUID, from, to models.RequestStatus) (*models.VerificationRequest, error)

	// SweepExpired moves every non-terminal request whose expiry passed
	// before now into expired and returns the number of rows changed.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}
