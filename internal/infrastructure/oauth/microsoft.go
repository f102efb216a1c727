package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/otp-auth-service/internal/config"
	"github.com/otp-auth-service/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const graphMeURL = "https://graph.microsoft.com/v1.0/me"

type microsoftProvider struct {
	conf *oauth2.Config
}

// NewMicrosoft builds the Microsoft adapter. The profile comes from Graph
// /me; personal accounts expose the address in userPrincipalName rather
// than mail.
func NewMicrosoft(cfg *config.Config) Provider {
	return &microsoftProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.MicrosoftClientID,
			ClientSecret: cfg.MicrosoftClientSecret,
			RedirectURL:  cfg.AppBaseURL + "/auth/microsoft/callback",
			Scopes:       []string{"openid", "email", "profile", "User.Read"},
			Endpoint:     microsoft.AzureADEndpoint(cfg.MicrosoftTenant),
		},
	}
}

func (m *microsoftProvider) Name() string { return domain.ProviderMicrosoft }

func (m *microsoftProvider) RedirectURL(state string) string {
	return m.conf.AuthCodeURL(state)
}

func (m *microsoftProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	tok, err := m.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("microsoft code exchange: %w", domain.ErrOAuthProvider)
	}

	resp, err := m.conf.Client(ctx, tok).Get(graphMeURL)
	if err != nil {
		return nil, fmt.Errorf("graph /me request: %w", domain.ErrOAuthProvider)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph /me status %d: %w", resp.StatusCode, domain.ErrOAuthProvider)
	}

	var me struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("decode graph /me: %w", domain.ErrOAuthProvider)
	}

	email := me.Mail
	if email == "" {
		email = me.UserPrincipalName
	}
	if email == "" {
		return nil, fmt.Errorf("microsoft profile missing email: %w", domain.ErrOAuthProvider)
	}
	return &Profile{
		Email:      email,
		Name:       me.DisplayName,
		ProviderID: me.ID,
	}, nil
}
