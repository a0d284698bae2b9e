package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/example/truenumber/internal/models"
	"github.com/example/truenumber/internal/store"
)

// OTPService owns the one-time-code challenge lifecycle: at most one live
// challenge per phone identity, a bounded retry budget, and a hard expiry.
type OTPService struct {
	challenges  store.ChallengeStore
	notifier    Notifier
	codeLength  int
	expiry      time.Duration
	maxAttempts int
}

// NewOTPService constructs an OTPService.
func NewOTPService(challenges store.ChallengeStore, notifier Notifier, codeLength int, expiry time.Duration, maxAttempts int) *OTPService {
	return &OTPService{
		challenges:  challenges,
		notifier:    notifier,
		codeLength:  codeLength,
		expiry:      expiry,
		maxAttempts: maxAttempts,
	}
}

// Issue creates a new challenge for the identity and hands the code to the
// notifier. It fails with ErrRateLimited while an unexpired, unverified
// challenge exists; this is an anti-spam guard, the void-and-insert
// transaction in the store is what prevents the two-live-codes race.
func (s *OTPService) Issue(ctx context.Context, mobileNumber, countryCode string) (*models.OTPChallenge, error) {
	_, err := s.challenges.Active(ctx, mobileNumber, countryCode)
	if err == nil {
		return nil, ErrRateLimited
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	code, err := generateCode(s.codeLength)
	if err != nil {
		return nil, err
	}

	ch := &models.OTPChallenge{
		MobileNumber: mobileNumber,
		CountryCode:  countryCode,
		Code:         code,
		ExpiresAt:    time.Now().Add(s.expiry),
		IsVerified:   false,
		Attempts:     0,
		MaxAttempts:  s.maxAttempts,
	}

	if err := s.challenges.Issue(ctx, ch); err != nil {
		return nil, err
	}

	if err := s.notifier.SendCode(mobileNumber, countryCode, code); err != nil {
		return nil, err
	}

	return ch, nil
}

// Verify checks the submitted code against the newest unverified challenge
// for the identity. A wrong code matches no challenge row, so it reports
// ErrInvalidCode without touching the attempt counter; only a matching row
// consumes an attempt. On success the challenge is marked verified and can
// never match again.
func (s *OTPService) Verify(ctx context.Context, mobileNumber, countryCode, code string) error {
	ch, err := s.challenges.FindByCode(ctx, mobileNumber, countryCode, code)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return err
	}

	if ch.Expired(time.Now()) {
		return ErrExpired
	}

	if ch.Attempts >= ch.MaxAttempts {
		return ErrAttemptsExceeded
	}

	if _, err := s.challenges.Consume(ctx, ch.ID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// A concurrent verify won the race; the code is spent.
			return ErrInvalidCode
		}
		return err
	}

	return nil
}

// CleanupExpired deletes challenges whose expiry passed before the retention
// cutoff. Cleanup is advisory: failures are logged and reported as zero.
func (s *OTPService) CleanupExpired(ctx context.Context, retention time.Duration) int64 {
	count, err := s.challenges.PurgeExpired(ctx, time.Now().Add(-retention))
	if err != nil {
		log.Printf("Error cleaning up expired OTPs: %v", err)
		return 0
	}
	return count
}

func generateCode(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
