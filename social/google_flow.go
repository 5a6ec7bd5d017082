// Package social runs the provider side of Google and Apple sign-in and hands
// the resulting provider credential to the session manager.
package social

import (
	"context"

	"github.com/jrsteele09/go-auth-client/authapi"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

var defaultGoogleScopes = []string{"openid", "email", "profile"}

// GoogleLoginer exchanges a Google access token for a backend session.
type GoogleLoginer interface {
	GoogleTokenLogin(ctx context.Context, accessToken string) (*authapi.AuthResponse, error)
}

// GoogleFlow is an authorization code flow with PKCE against Google.
type GoogleFlow struct {
	config *oauth2.Config
}

// GoogleOption configures a GoogleFlow.
type GoogleOption func(*oauth2.Config)

// WithEndpoint overrides the Google endpoints (primarily for testing)
func WithEndpoint(e oauth2.Endpoint) GoogleOption {
	return func(c *oauth2.Config) {
		c.Endpoint = e
	}
}

// WithScopes replaces the default openid/email/profile scopes
func WithScopes(scopes ...string) GoogleOption {
	return func(c *oauth2.Config) {
		c.Scopes = scopes
	}
}

// NewGoogleFlow creates a flow for a public client. clientSecret may be empty.
func NewGoogleFlow(clientID, clientSecret, redirectURL string, opts ...GoogleOption) *GoogleFlow {
	c := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoints.Google,
		Scopes:       defaultGoogleScopes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return &GoogleFlow{config: c}
}

// NewVerifier returns a fresh PKCE code verifier.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthCodeURL is the consent page URL carrying state and the S256 challenge for verifier.
func (f *GoogleFlow) AuthCodeURL(state, verifier string) string {
	return f.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the authorization code for a Google access token.
func (f *GoogleFlow) Exchange(ctx context.Context, code, verifier string) (string, error) {
	if code == "" {
		return "", autherrors.Wrapf(autherrors.ErrMissingToken, "[GoogleFlow Exchange] authorization code")
	}
	tok, err := f.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", autherrors.Wrapf(err, "[GoogleFlow Exchange]")
	}
	if tok.AccessToken == "" {
		return "", autherrors.Wrapf(autherrors.ErrMissingToken, "[GoogleFlow Exchange] empty access token")
	}
	return tok.AccessToken, nil
}

// Login exchanges code and signs in to the backend with the Google access token.
func (f *GoogleFlow) Login(ctx context.Context, l GoogleLoginer, code, verifier string) (*authapi.AuthResponse, error) {
	accessToken, err := f.Exchange(ctx, code, verifier)
	if err != nil {
		return nil, err
	}
	return l.GoogleTokenLogin(ctx, accessToken)
}
