package domain

import "time"

// Flash is a one-shot message surfaced to the user on the next page load.
type Flash struct {
	Kind    string `json:"kind" dynamodbav:"kind"` // "success" | "error"
	Message string `json:"message" dynamodbav:"message"`
}

// Session is the server-side state for one browser session.
//
// UserID is the currently active account ("" while anonymous). OTPEmail pins
// the email of an in-flight OTP challenge. AccountIDs holds every account the
// browser has authenticated into during the session's lifetime, in login
// order and without duplicates; the active user id is always a member once a
// login has succeeded.
type Session struct {
	SessionID   string    `json:"id" dynamodbav:"session_id"`
	UserID      string    `json:"user_id,omitempty" dynamodbav:"user_id"`
	OTPEmail    string    `json:"-" dynamodbav:"otp_email"`
	AccountIDs  []string  `json:"authenticated_account_ids" dynamodbav:"authenticated_account_ids"`
	CSRFToken   string    `json:"-" dynamodbav:"csrf_token"`
	OAuthState  string    `json:"-" dynamodbav:"oauth_state"`
	IntendedURL string    `json:"-" dynamodbav:"intended_url"`
	Flash       *Flash    `json:"flash,omitempty" dynamodbav:"flash"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Authenticated reports whether an account is currently active.
func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// PushAccount appends userID to the authenticated-account stack if absent.
func (s *Session) PushAccount(userID string) {
	for _, id := range s.AccountIDs {
		if id == userID {
			return
		}
	}
	s.AccountIDs = append(s.AccountIDs, userID)
}

// RemoveAccount drops userID from the stack, tolerating it being absent.
func (s *Session) RemoveAccount(userID string) {
	out := s.AccountIDs[:0]
	for _, id := range s.AccountIDs {
		if id != userID {
			out = append(out, id)
		}
	}
	s.AccountIDs = out
}

// NextAccount returns the oldest surviving account id — the first element in
// login order, not the most recently used.
func (s *Session) NextAccount() (string, bool) {
	if len(s.AccountIDs) == 0 {
		return "", false
	}
	return s.AccountIDs[0], true
}

// PutFlash replaces any pending flash message.
func (s *Session) PutFlash(kind, message string) {
	s.Flash = &Flash{Kind: kind, Message: message}
}

// TakeFlash returns and clears the pending flash message, if any.
func (s *Session) TakeFlash() *Flash {
	f := s.Flash
	s.Flash = nil
	return f
}
