package services

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically forces time-exceeded challenges and requests into
// their expired state. It has no API beyond its effect on the store; overlap
// between runs is harmless because both underlying sweeps are idempotent.
type Sweeper struct {
	otp          *OTPService
	verification *VerificationService
	interval     time.Duration
	otpRetention time.Duration
}

// NewSweeper constructs a Sweeper that fires every interval. otpRetention is
// how long expired challenge rows are kept before deletion.
func NewSweeper(otp *OTPService, verification *VerificationService, interval, otpRetention time.Duration) *Sweeper {
	return &Sweeper{
		otp:          otp,
		verification: verification,
		interval:     interval,
		otpRetention: otpRetention,
	}
}

// Run performs an immediate pass and then one per tick until ctx is
// cancelled. Intended to be started as a goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired := s.verification.SweepExpired(ctx)
	purged := s.otp.CleanupExpired(ctx, s.otpRetention)
	log.Printf("Sweep pass: %d verification requests expired, %d OTP records purged", expired, purged)
}
