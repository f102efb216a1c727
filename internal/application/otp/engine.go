package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/otp-auth-service/internal/domain"
	"github.com/otp-auth-service/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// Store is the persistence the engine requires.
type Store interface {
	Put(ctx context.Context, o *domain.OneTimePassword) error
	GetNewest(ctx context.Context, userID string) (*domain.OneTimePassword, error)
	// Consume must be an atomic check-and-mark; it returns a
	// domain.ErrInvalidOTP-wrapped error when the code was already consumed.
	Consume(ctx context.Context, userID, otpID string) error
}

// Engine generates and consumes single-use, time-limited login codes.
type Engine interface {
	// Issue persists a new hashed OTP and returns the plaintext code exactly
	// once, for delivery. It does not send anything.
	Issue(ctx context.Context, userID string) (string, error)
	// Consume verifies the submitted code against the newest unconsumed OTP.
	// Wrong, expired, already-consumed and absent codes all fail with the
	// same domain.ErrInvalidOTP — an invalid submission is a normal outcome,
	// not an exceptional one, and no oracle is exposed.
	Consume(ctx context.Context, userID, submitted string) error
}

type engine struct {
	store Store
	ttl   time.Duration
}

func NewEngine(store Store, ttl time.Duration) Engine {
	return &engine{store: store, ttl: ttl}
}

func (e *engine) Issue(ctx context.Context, userID string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	o := &domain.OneTimePassword{
		UserID:    userID,
		OTPID:     id.New(),
		CodeHash:  string(hash),
		CreatedAt: now,
		ExpiresAt: now.Add(e.ttl).Unix(),
	}
	if err := e.store.Put(ctx, o); err != nil {
		return "", err
	}
	return code, nil
}

func (e *engine) Consume(ctx context.Context, userID, submitted string) error {
	o, err := e.store.GetNewest(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no outstanding code: %w", domain.ErrInvalidOTP)
		}
		return err
	}
	if o.Expired(time.Now()) {
		return fmt.Errorf("code expired: %w", domain.ErrInvalidOTP)
	}
	// bcrypt comparison is constant-time for matching-cost hashes.
	if err := bcrypt.CompareHashAndPassword([]byte(o.CodeHash), []byte(submitted)); err != nil {
		return fmt.Errorf("code mismatch: %w", domain.ErrInvalidOTP)
	}
	return e.store.Consume(ctx, userID, o.OTPID)
}
