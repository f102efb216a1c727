package domain

import "time"

// OAuth provider names stored on User.Provider.
const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"
)

type User struct {
	UserID          string     `json:"id" dynamodbav:"user_id"`
	Email           string     `json:"email" dynamodbav:"email"`
	Name            string     `json:"name" dynamodbav:"name"`
	PasswordHash    string     `json:"-" dynamodbav:"password_hash"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty" dynamodbav:"email_verified_at"`
	Provider        string     `json:"provider,omitempty" dynamodbav:"provider"` // "" | "google" | "microsoft"
	GoogleID        string     `json:"-" dynamodbav:"google_id"`
	MicrosoftID     string     `json:"-" dynamodbav:"microsoft_id"`
	AvatarURL       string     `json:"avatar,omitempty" dynamodbav:"avatar_url"`
	Locale          string     `json:"locale,omitempty" dynamodbav:"locale"`
	CreatedAt       time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt       time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// Verified reports whether the user's email has been proven, either by a
// completed OTP login or by an OAuth provider vouching for it.
func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}
