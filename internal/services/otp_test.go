package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/truenumber/internal/models"
)

const (
	testMobile  = "5551234567"
	testCountry = "+1"
)

func newOTPFixture(t *testing.T) (*OTPService, *memChallenges, *countingNotifier) {
	t.Helper()
	challenges := &memChallenges{}
	notifier := &countingNotifier{}
	svc := NewOTPService(challenges, notifier, 6, 10*time.Minute, 3)
	return svc, challenges, notifier
}

func TestIssueCreatesChallengeAndNotifiesOnce(t *testing.T) {
	svc, _, notifier := newOTPFixture(t)

	ch, err := svc.Issue(context.Background(), testMobile, testCountry)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if len(ch.Code) != 6 {
		t.Errorf("code length = %d, want 6", len(ch.Code))
	}
	for _, r := range ch.Code {
		if r < '0' || r > '9' {
			t.Errorf("code %q contains non-digit %q", ch.Code, r)
		}
	}
	if ch.IsVerified {
		t.Error("new challenge must not be verified")
	}
	if ch.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", ch.Attempts)
	}
	if ch.MaxAttempts != 3 {
		t.Errorf("max attempts = %d, want 3", ch.MaxAttempts)
	}
	if notifier.sent != 1 {
		t.Errorf("notifier calls = %d, want 1", notifier.sent)
	}
}

func TestIssueWhilePendingIsRateLimited(t *testing.T) {
	svc, _, notifier := newOTPFixture(t)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, testMobile, testCountry); err != nil {
		t.Fatalf("first Issue: %v", err)
	}

	_, err := svc.Issue(ctx, testMobile, testCountry)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second Issue error = %v, want ErrRateLimited", err)
	}
	if notifier.sent != 1 {
		t.Errorf("notifier calls = %d, want 1 (rate-limited issue must not deliver)", notifier.sent)
	}
}

func TestIssueForDifferentIdentityIsIndependent(t *testing.T) {
	svc, _, _ := newOTPFixture(t)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, testMobile, testCountry); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Issue(ctx, "5559876543", testCountry); err != nil {
		t.Fatalf("Issue for other number: %v", err)
	}
}

func TestIssueVoidsPriorUnverifiedChallenges(t *testing.T) {
	svc, challenges, _ := newOTPFixture(t)
	ctx := context.Background()

	// Stale unverified challenge, already past expiry, so Issue is not
	// rate-limited but must still void it.
	stale := challenges.seed(&models.OTPChallenge{
		MobileNumber: testMobile,
		CountryCode:  testCountry,
		Code:         "111111",
		ExpiresAt:    time.Now().Add(-time.Minute),
		MaxAttempts:  3,
	})

	if _, err := svc.Issue(ctx, testMobile, testCountry); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if !stale.IsVerified {
		t.Error("prior unverified challenge was not voided by Issue")
	}
	if err := svc.Verify(ctx, testMobile, testCountry, "111111"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("Verify(old code) error = %v, want ErrInvalidCode", err)
	}
}

func TestVerifySucceedsExactlyOnce(t *testing.T) {
	svc, _, notifier := newOTPFixture(t)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, testMobile, testCountry); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	code := notifier.codes[0]

	if err := svc.Verify(ctx, testMobile, testCountry, code); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	// The challenge is spent; the same code no longer matches a live row.
	if err := svc.Verify(ctx, testMobile, testCountry, code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("second Verify error = %v, want ErrInvalidCode", err)
	}
}

func TestVerifyWrongCode(t *testing.T) {
	svc, _, notifier := newOTPFixture(t)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, testMobile, testCountry); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	wrong := "000000"
	if wrong == notifier.codes[0] {
		wrong = "000001"
	}

	if err := svc.Verify(ctx, testMobile, testCountry, wrong); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("Verify(wrong) error = %v, want ErrInvalidCode", err)
	}
}

func TestVerifyWrongCodeDoesNotConsumeAttempts(t *testing.T) {
	// Pins the contract: attempts only move when a matching live row is
	// found, so wrong guesses never touch the budget. The issue-side rate
	// limit is the effective brute-force guard.
	svc, challenges, notifier := newOTPFixture(t)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, testMobile, testCountry); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for i := 0; i < 10; i++ {
		if err := svc.Verify(ctx, testMobile, testCountry, "999999x"); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("Verify(wrong) error = %v, want ErrInvalidCode", err)
		}
	}

	ch, err := challenges.FindByCode(ctx, testMobile, testCountry, notifier.codes[0])
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if ch.Attempts != 0 {
		t.Errorf("attempts = %d after wrong guesses, want 0", ch.Attempts)
	}

	if err := svc.Verify(ctx, testMobile, testCountry, notifier.codes[0]); err != nil {
		t.Errorf("Verify(correct) after wrong guesses: %v", err)
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	svc, challenges, _ := newOTPFixture(t)
	ctx := context.Background()

	challenges.seed(&models.OTPChallenge{
		MobileNumber: testMobile,
		CountryCode:  testCountry,
		Code:         "123456",
		ExpiresAt:    time.Now().Add(-time.Second),
		MaxAttempts:  3,
	})

	// Expired-but-matching must be distinguishable from a wrong code so the
	// client can prompt a resend.
	if err := svc.Verify(ctx, testMobile, testCountry, "123456"); !errors.Is(err, ErrExpired) {
		t.Fatalf("Verify(expired) error = %v, want ErrExpired", err)
	}
}

func TestVerifyAttemptsExceeded(t *testing.T) {
	svc, challenges, _ := newOTPFixture(t)
	ctx := context.Background()

	challenges.seed(&models.OTPChallenge{
		MobileNumber: testMobile,
		CountryCode:  testCountry,
		Code:         "123456",
		ExpiresAt:    time.Now().Add(10 * time.Minute),
		Attempts:     3,
		MaxAttempts:  3,
	})

	if err := svc.Verify(ctx, testMobile, testCountry, "123456"); !errors.Is(err, ErrAttemptsExceeded) {
		t.Fatalf("Verify error = %v, want ErrAttemptsExceeded", err)
	}
}

func TestCleanupExpiredPurgesOldRows(t *testing.T) {
	svc, challenges, _ := newOTPFixture(t)
	ctx := context.Background()

	challenges.seed(&models.OTPChallenge{
		MobileNumber: testMobile,
		CountryCode:  testCountry,
		Code:         "123456",
		ExpiresAt:    time.Now().Add(-48 * time.Hour),
	})
	challenges.seed(&models.OTPChallenge{
		MobileNumber: testMobile,
		CountryCode:  testCountry,
		Code:         "654321",
		ExpiresAt:    time.Now().Add(10 * time.Minute),
	})

	if got := svc.CleanupExpired(ctx, 24*time.Hour); got != 1 {
		t.Errorf("CleanupExpired = %d, want 1", got)
	}
	if got := svc.CleanupExpired(ctx, 24*time.Hour); got != 0 {
		t.Errorf("second CleanupExpired = %d, want 0", got)
	}
}

func TestGenerateCodeIsFixedLength(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode(6)
		if err != nil {
			t.Fatalf("generateCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("generateCode returned %q, want 6 digits", code)
		}
	}
}
