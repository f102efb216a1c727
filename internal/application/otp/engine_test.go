package otp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/otp-auth-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, o *domain.OneTimePassword) error {
	return m.Called(ctx, o).Error(0)
}
func (m *mockStore) GetNewest(ctx context.Context, userID string) (*domain.OneTimePassword, error) {
	args := m.Called(ctx, userID)
	if o, _ := args.Get(0).(*domain.OneTimePassword); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) Consume(ctx context.Context, userID, otpID string) error {
	return m.Called(ctx, userID, otpID).Error(0)
}

func hashed(t *testing.T, code string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Issue ---

func TestIssue_PersistsHashedCode(t *testing.T) {
	st := &mockStore{}
	var stored *domain.OneTimePassword
	st.On("Put", mock.Anything, mock.AnythingOfType("*domain.OneTimePassword")).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.OneTimePassword)
	}).Return(nil)

	eng := NewEngine(st, 10*time.Minute)
	code, err := eng.Issue(context.Background(), "u1")

	require.NoError(t, err)
	assert.Len(t, code, 6)
	require.NotNil(t, stored)
	assert.Equal(t, "u1", stored.UserID)
	assert.NotEqual(t, code, stored.CodeHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.CodeHash), []byte(code)))
	assert.Greater(t, stored.ExpiresAt, time.Now().Unix())
}

// --- Consume ---

func TestConsume_HappyPath(t *testing.T) {
	st := &mockStore{}
	st.On("GetNewest", mock.Anything, "u1").Return(&domain.OneTimePassword{
		UserID:    "u1",
		OTPID:     "otp-1",
		CodeHash:  hashed(t, "123456"),
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
	}, nil)
	st.On("Consume", mock.Anything, "u1", "otp-1").Return(nil)

	eng := NewEngine(st, 10*time.Minute)
	require.NoError(t, eng.Consume(context.Background(), "u1", "123456"))
	st.AssertExpectations(t)
}

func TestConsume_WrongCode(t *testing.T) {
	st := &mockStore{}
	st.On("GetNewest", mock.Anything, "u1").Return(&domain.OneTimePassword{
		OTPID:     "otp-1",
		CodeHash:  hashed(t, "123456"),
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
	}, nil)

	eng := NewEngine(st, 10*time.Minute)
	err := eng.Consume(context.Background(), "u1", "654321")
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
}

func TestConsume_ExpiredCode(t *testing.T) {
	st := &mockStore{}
	st.On("GetNewest", mock.Anything, "u1").Return(&domain.OneTimePassword{
		OTPID:     "otp-1",
		CodeHash:  hashed(t, "123456"),
		ExpiresAt: time.Now().Add(-1 * time.Minute).Unix(),
	}, nil)

	eng := NewEngine(st, 10*time.Minute)
	err := eng.Consume(context.Background(), "u1", "123456")
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
}

func TestConsume_NoCode(t *testing.T) {
	st := &mockStore{}
	st.On("GetNewest", mock.Anything, "u1").Return(nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound))

	eng := NewEngine(st, 10*time.Minute)
	err := eng.Consume(context.Background(), "u1", "123456")
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
}

func TestConsume_AlreadyConsumed_RaceLoser(t *testing.T) {
	st := &mockStore{}
	st.On("GetNewest", mock.Anything, "u1").Return(&domain.OneTimePassword{
		OTPID:     "otp-1",
		CodeHash:  hashed(t, "123456"),
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
	}, nil)
	// The store's conditional update fails for the loser of a concurrent race.
	st.On("Consume", mock.Anything, "u1", "otp-1").Return(fmt.Errorf("otp already consumed: %w", domain.ErrInvalidOTP))

	eng := NewEngine(st, 10*time.Minute)
	err := eng.Consume(context.Background(), "u1", "123456")
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
}

func TestConsume_StorageFailurePropagates(t *testing.T) {
	st := &mockStore{}
	boom := errors.New("dynamo down")
	st.On("GetNewest", mock.Anything, "u1").Return(nil, boom)

	eng := NewEngine(st, 10*time.Minute)
	err := eng.Consume(context.Background(), "u1", "123456")
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, domain.ErrInvalidOTP))
}
