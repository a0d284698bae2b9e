package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/truenumber/internal/models"
	"github.com/example/truenumber/internal/store"
)

// userTransitionTargets are the only statuses a user action may request.
// Expiry is driven by the sweep, delivery states by delivery collaborators.
var userTransitionTargets = map[models.RequestStatus]bool{
	models.StatusUserRejected:  true,
	models.StatusRequestOpened: true,
	models.StatusCompleted:     true,
}

// VerificationService owns the verification-request state machine.
type VerificationService struct {
	requests  store.RequestStore
	users     store.UserStore
	companies store.CompanyStore
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(requests store.RequestStore, users store.UserStore, companies store.CompanyStore) *VerificationService {
	return &VerificationService{requests: requests, users: users, companies: companies}
}

// Create opens a verification request from a company toward the user owning
// the phone identity. Both company and user must already exist.
func (s *VerificationService) Create(ctx context.Context, mobileNumber, countryCode string, companyID uuid.UUID, reqType models.RequestType, ttl time.Duration) (*models.VerificationRequest, error) {
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user, err := s.users.GetByIdentity(ctx, mobileNumber, countryCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	req := &models.VerificationRequest{
		UserID:      user.ID,
		CompanyID:   companyID,
		RequestType: reqType,
		Status:      models.StatusUserActionPending,
		ExpiryTime:  time.Now().Add(ttl),
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Transition applies a user action to the request. The ownership check and
// the transition-table lookup both run against the read the guarded store
// update is keyed on, so a concurrent transition cannot slip through.
func (s *VerificationService) Transition(ctx context.Context, requestID, requesterID uuid.UUID, target models.RequestStatus) (*models.VerificationRequest, error) {
	if !userTransitionTargets[target] {
		return nil, ErrInvalidTransition
	}

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.UserID != requesterID {
		return nil, ErrForbidden
	}

	if !req.Status.CanTransition(target) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.requests.Transition(ctx, requestID, req.Status, target)
	if errors.Is(err, store.ErrConflict) {
		// Somebody moved the request between our read and write; the status
		// we validated against no longer holds.
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get returns a single request with user and company detail.
func (s *VerificationService) Get(ctx context.Context, requestID uuid.UUID) (*models.VerificationRequest, error) {
	req, err := s.requests.Get(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return req, err
}

// ListPending returns the user's actionable requests: user_action_pending
// with a future expiry, newest first. This is the set a client polls.
func (s *VerificationService) ListPending(ctx context.Context, userID uuid.UUID) ([]models.VerificationRequest, error) {
	return s.requests.PendingForUser(ctx, userID)
}

// ListForCompany returns a page of the company's requests, newest first.
func (s *VerificationService) ListForCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]models.VerificationRequest, error) {
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.requests.ForCompany(ctx, companyID, limit, offset)
}

// SweepExpired bulk-expires every non-terminal request past its expiry and
// returns the number of rows changed. Idempotent: a second run with no new
// expirations changes nothing. Failures are logged and reported as zero.
func (s *VerificationService) SweepExpired(ctx context.Context) int64 {
	count, err := s.requests.SweepExpired(ctx, time.Now())
	if err != nil {
		log.Printf("Error sweeping expired verification requests: %v", err)
		return 0
	}
	return count
}
