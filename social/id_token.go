package social

import (
	"context"
	"strconv"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-client/authapi"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

// Issuers of the supported identity providers.
const (
	IssuerApple  = "https://appleid.apple.com"
	IssuerGoogle = "https://accounts.google.com"
)

// AppleLoginer exchanges an Apple ID token for a backend session.
type AppleLoginer interface {
	AppleTokenLogin(ctx context.Context, idToken, name string) (*authapi.AuthResponse, error)
}

// Identity is the subset of ID token claims the client uses.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// IDTokenVerifier checks provider ID tokens before they are sent to the backend.
type IDTokenVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// VerifierOption configures an IDTokenVerifier.
type VerifierOption func(*oidc.Config)

// WithNowTime sets the clock used for expiry checks (primarily for testing)
func WithNowTime(nowFunc func() time.Time) VerifierOption {
	return func(c *oidc.Config) {
		c.Now = nowFunc
	}
}

// DiscoverVerifier fetches the provider's discovery document and key set.
func DiscoverVerifier(ctx context.Context, issuer, clientID string, opts ...VerifierOption) (*IDTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, autherrors.Wrapf(err, "[DiscoverVerifier] %s", issuer)
	}
	return &IDTokenVerifier{verifier: provider.Verifier(oidcConfig(clientID, opts))}, nil
}

// NewIDTokenVerifier verifies tokens from issuer against keySet.
func NewIDTokenVerifier(issuer string, keySet oidc.KeySet, clientID string, opts ...VerifierOption) *IDTokenVerifier {
	return &IDTokenVerifier{verifier: oidc.NewVerifier(issuer, keySet, oidcConfig(clientID, opts))}
}

func oidcConfig(clientID string, opts []VerifierOption) *oidc.Config {
	c := &oidc.Config{ClientID: clientID}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify checks signature, issuer, audience and expiry of rawIDToken.
func (v *IDTokenVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	if rawIDToken == "" {
		return nil, autherrors.Wrapf(autherrors.ErrMissingToken, "[IDTokenVerifier Verify]")
	}
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, autherrors.Wrapf(err, "[IDTokenVerifier Verify]")
	}

	// Apple sends email_verified as a string.
	var claims struct {
		Email         string `json:"email"`
		EmailVerified any    `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, autherrors.Wrapf(err, "[IDTokenVerifier Verify] claims")
	}

	return &Identity{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: truthy(claims.EmailVerified),
		Name:          claims.Name,
	}, nil
}

// AppleLogin verifies rawIDToken and signs in to the backend. name comes from
// the first authorization only; the token's name claim is used when it is empty.
func (v *IDTokenVerifier) AppleLogin(ctx context.Context, l AppleLoginer, rawIDToken, name string) (*authapi.AuthResponse, error) {
	identity, err := v.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = identity.Name
	}
	return l.AppleTokenLogin(ctx, rawIDToken, name)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	}
	return false
}
