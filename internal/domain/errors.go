package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP responses without leaking
// infrastructure details or session state to a probing client.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")

	// ErrSessionMismatch covers both "no OTP challenge in progress" and
	// "challenge pinned to a different email". The two cases are deliberately
	// indistinguishable to the caller.
	ErrSessionMismatch = errors.New("session mismatch")

	// ErrInvalidOTP covers wrong, expired, already-consumed and absent codes
	// with a single generic failure.
	ErrInvalidOTP = errors.New("invalid otp")

	// ErrOAuthProvider wraps any failure while talking to an identity provider.
	ErrOAuthProvider = errors.New("oauth provider error")
)
