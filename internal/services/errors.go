package services

import "errors"

// Failure kinds surfaced by the services. Handlers map these to HTTP statuses;
// nothing below the handler layer knows about transport codes.
var (
	// ErrRateLimited means an unexpired, unverified challenge already exists
	// for the identity.
	ErrRateLimited = errors.New("otp already pending for this number")

	// ErrInvalidCode means no live challenge matches the submitted code.
	ErrInvalidCode = errors.New("invalid otp code")

	// ErrExpired means a matching challenge exists but its expiry has passed.
	ErrExpired = errors.New("otp code expired")

	// ErrAttemptsExceeded means the challenge's retry budget is exhausted.
	ErrAttemptsExceeded = errors.New("maximum verification attempts exceeded")

	// ErrInvalidToken covers signature, issuer, expiry, and type failures.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrNotFound means the referenced user, company, or request is unknown.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden means the requester does not own the target request.
	ErrForbidden = errors.New("requester does not own this request")

	// ErrInvalidTransition means the status graph does not allow the move.
	ErrInvalidTransition = errors.New("status transition not allowed")
)
