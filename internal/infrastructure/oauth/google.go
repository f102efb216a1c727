package oauth

import (
	"context"
	"fmt"

	"github.com/otp-auth-service/internal/config"
	"github.com/otp-auth-service/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

type googleProvider struct {
	conf     *oauth2.Config
	clientID string
}

// NewGoogle builds the Google adapter. Identity comes from the ID token in
// the exchange response, verified against our client ID — no extra userinfo
// round-trip needed.
func NewGoogle(cfg *config.Config) Provider {
	return &googleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppBaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		clientID: cfg.GoogleClientID,
	}
}

func (g *googleProvider) Name() string { return domain.ProviderGoogle }

func (g *googleProvider) RedirectURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

func (g *googleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w", domain.ErrOAuthProvider)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("google response missing id_token: %w", domain.ErrOAuthProvider)
	}
	payload, err := idtoken.Validate(ctx, rawIDToken, g.clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google id token: %w", domain.ErrOAuthProvider)
	}
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)
	if email == "" {
		return nil, fmt.Errorf("google profile missing email: %w", domain.ErrOAuthProvider)
	}
	return &Profile{
		Email:      email,
		Name:       name,
		ProviderID: payload.Subject,
		AvatarURL:  picture,
	}, nil
}
