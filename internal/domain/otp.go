package domain

import "time"

// OneTimePassword is an ephemeral login credential. The code itself is never
// stored; only a bcrypt hash is kept. OTPID is a ULID, so the newest record
// for a user is the one with the lexicographically largest sort key.
// ExpiresAt doubles as the DynamoDB TTL attribute (Unix seconds).
type OneTimePassword struct {
	UserID     string     `json:"user_id" dynamodbav:"user_id"`
	OTPID      string     `json:"id" dynamodbav:"otp_id"`
	CodeHash   string     `json:"-" dynamodbav:"code_hash"`
	CreatedAt  time.Time  `json:"created" dynamodbav:"created_at"`
	ExpiresAt  int64      `json:"expires_at" dynamodbav:"expires_at"`
	// omitempty matters: the unconsumed state must be an ABSENT attribute,
	// not NULL, for the attribute_not_exists conditions to hold.
	ConsumedAt *time.Time `json:"consumed_at,omitempty" dynamodbav:"consumed_at,omitempty"`
}

// Expired reports whether the code's TTL has passed at the given instant.
func (o *OneTimePassword) Expired(now time.Time) bool {
	return o.ExpiresAt < now.Unix()
}
