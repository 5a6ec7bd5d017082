package session

import (
	"context"
	"net/http"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"golang.org/x/oauth2"
)

// expiryLeeway refreshes slightly before the access token's exp claim.
const expiryLeeway = 30 * time.Second

// AccessTokenExpiry reads the exp claim of a JWT access token without
// verifying it; the client holds no verification key and only needs a
// refresh hint. Opaque or exp-less tokens report ok=false.
func AccessTokenExpiry(accessToken string) (exp time.Time, ok bool) {
	token, _, err := jwtlib.NewParser().ParseUnverified(accessToken, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	date, err := token.Claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

type tokenSource struct {
	ctx context.Context
	m   *Manager
}

// TokenSource yields the current access token, refreshing it first when its
// exp claim is within the leeway. A failed refresh ends the session.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, m: m}
}

// HTTPClient returns a client that authorizes every request with the session's
// access token, for collaborators calling the rest of the API. The token is
// looked up per request so a logout takes effect immediately. base may be nil.
func (m *Manager) HTTPClient(ctx context.Context, base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: m.TokenSource(ctx), Base: base.Transport},
		Timeout:   base.Timeout,
	}
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	s := ts.m.State()
	if !s.IsAuthenticated() {
		return nil, autherrors.Wrapf(autherrors.ErrIncompleteSession, "[TokenSource] not authenticated")
	}

	if ts.m.expired(s.AccessToken) {
		if _, err := ts.m.Refresh(ts.ctx); err != nil {
			return nil, err
		}
		s = ts.m.State()
		if !s.IsAuthenticated() {
			return nil, autherrors.Wrapf(autherrors.ErrIncompleteSession, "[TokenSource] session ended during refresh")
		}
	}

	tok := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, ok := AccessTokenExpiry(s.AccessToken); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

func (m *Manager) expired(accessToken string) bool {
	exp, ok := AccessTokenExpiry(accessToken)
	if !ok {
		return false
	}
	return !m.nowTime().Add(expiryLeeway).Before(exp)
}
