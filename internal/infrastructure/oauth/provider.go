package oauth

import "context"

// Profile is the normalized identity shape every provider adapter returns.
// The orchestrator only ever sees this, never provider-specific payloads.
type Profile struct {
	Email     string
	Name      string
	ProviderID string
	AvatarURL string
}

// Provider is one external identity provider (Google, Microsoft, ...).
type Provider interface {
	Name() string
	// RedirectURL builds the provider's consent-screen URL carrying state.
	RedirectURL(state string) string
	// Exchange swaps the callback authorization code for a normalized profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}
