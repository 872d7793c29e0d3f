package federated

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

var ErrMissingIDToken = errors.New("token response has no id_token")

// IDTokenValidator verifies a Google ID token for the given audience.
type IDTokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleProvider exchanges an authorization code with Google and verifies
// the returned ID token against the client ID.
type GoogleProvider struct {
	config   *oauth2.Config
	validate IDTokenValidator
}

type GoogleOption func(*GoogleProvider)

// WithEndpoint overrides Google's OAuth endpoints.
func WithEndpoint(endpoint oauth2.Endpoint) GoogleOption {
	return func(p *GoogleProvider) {
		p.config.Endpoint = endpoint
	}
}

// WithIDTokenValidator replaces idtoken.Validate.
func WithIDTokenValidator(v IDTokenValidator) GoogleOption {
	return func(p *GoogleProvider) {
		p.validate = v
	}
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		validate: idtoken.Validate,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades the code for tokens and returns the identity carried by
// the verified ID token.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (ExternalIdentity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		slog.Error("Failed to exchange authorization code", "provider", ProviderGoogle, "err", err)
		return ExternalIdentity{}, fmt.Errorf("failed to exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return ExternalIdentity{}, ErrMissingIDToken
	}

	payload, err := p.validate(ctx, rawIDToken, p.config.ClientID)
	if err != nil {
		slog.Warn("Rejected Google ID token", "err", err)
		return ExternalIdentity{}, fmt.Errorf("invalid google id token: %w", err)
	}

	return identityFromPayload(payload)
}

func identityFromPayload(payload *idtoken.Payload) (ExternalIdentity, error) {
	if payload.Subject == "" {
		return ExternalIdentity{}, fmt.Errorf("google id token without subject")
	}

	claims := payload.Claims
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	verified, _ := claims["email_verified"].(bool)

	return ExternalIdentity{
		Provider:      ProviderGoogle,
		Subject:       payload.Subject,
		Email:         email,
		EmailVerified: verified,
		Name:          name,
		Picture:       picture,
	}, nil
}
