package phone

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/garuda/remoteauth/internal/domain"
	"github.com/garuda/remoteauth/internal/repository"
	"github.com/garuda/remoteauth/pkg/config"
	"github.com/garuda/remoteauth/pkg/crypto"
)

var (
	ErrInvalidNumber  = errors.New("phone: invalid phone number")
	ErrNotFound       = errors.New("phone: verification not found")
	ErrExpired        = errors.New("phone: verification expired")
	ErrCodeMismatch   = errors.New("phone: verification code mismatch")
	ErrDeliveryFailed = errors.New("phone: code delivery failed")
)

// Service manages phone verification challenges.
type Service struct {
	verifications repository.PhoneVerificationRepository
	sender        Sender
	logger        *slog.Logger
	cfg           config.APIConfig
}

// New constructs a Service.
func New(verifications repository.PhoneVerificationRepository, sender Sender, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{verifications: verifications, sender: sender, logger: logger, cfg: cfg}
}

// Challenge is the caller-visible part of a started verification. The code
// travels out-of-band only.
type Challenge struct {
	VerificationID string
	TTL            time.Duration
}

// Start validates the number, persists a hashed one-time code, and dispatches
// it through the SMS gateway. Validation runs before any state mutation or
// external call.
func (s Service) Start(ctx context.Context, phoneNumber string) (*Challenge, error) {
	number := strings.TrimSpace(phoneNumber)
	if !ValidE164(number) {
		return nil, ErrInvalidNumber
	}
	length := s.cfg.PhoneCodeLength
	if length <= 0 {
		length = 6
	}
	ttl := s.cfg.PhoneCodeTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	code, err := crypto.GenerateNumericCode(length)
	if err != nil {
		return nil, err
	}
	verification := &domain.PhoneVerification{
		ID:          uuid.NewString(),
		PhoneNumber: number,
		CodeHash:    crypto.HashCode(code),
		ExpiresAt:   time.Now().UTC().Add(ttl),
	}
	if err := s.verifications.CreateVerification(ctx, verification); err != nil {
		return nil, err
	}
	if err := s.sender.SendCode(ctx, number, code); err != nil {
		s.logger.Error("verification code delivery failed", "verification_id", verification.ID, "error", err)
		return nil, ErrDeliveryFailed
	}
	s.logger.Info("phone verification started", "verification_id", verification.ID)
	return &Challenge{VerificationID: verification.ID, TTL: ttl}, nil
}

// Confirm checks the code against a live challenge and consumes it. A
// challenge is consumed at most once; a mismatched code leaves it live for
// further attempts until expiry.
func (s Service) Confirm(ctx context.Context, verificationID, code string) error {
	id := strings.TrimSpace(verificationID)
	if id == "" || strings.TrimSpace(code) == "" {
		return ErrNotFound
	}
	verification, err := s.verifications.GetVerification(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	now := time.Now()
	if verification.Expired(now) {
		return ErrExpired
	}
	if verification.Consumed() {
		return ErrNotFound
	}
	if !crypto.VerifyCode(verification.CodeHash, strings.TrimSpace(code)) {
		return ErrCodeMismatch
	}
	// The conditional consume is the atomicity point: a concurrent confirm
	// that got here first wins and this one reports the challenge gone.
	if _, err := s.verifications.ConsumeVerification(ctx, id, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Info("phone verification confirmed", "verification_id", id)
	return nil
}

// ValidE164 reports whether the input is a plausible E.164 number: a leading
// +, a non-zero country code digit, digits only, and 7 to 15 digits total.
func ValidE164(number string) bool {
	if len(number) < 2 || number[0] != '+' {
		return false
	}
	digits := number[1:]
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	if digits[0] == '0' {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}
