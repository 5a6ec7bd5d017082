package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/authapi/apifake"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/tokenstore"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mintAccessToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject:   testUserID,
		ExpiresAt: jwtlib.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("server-side-secret"))
	require.NoError(t, err)
	return signed
}

func setupJWTFixture(t *testing.T, accessToken string) *testFixture {
	t.Helper()
	f := newTestFixture(t, session.WithNowTime(func() time.Time { return fixedNow }))
	f.store.Seed(tokenstore.KeyAccessToken, accessToken)
	f.store.Seed(tokenstore.KeyRefreshToken, testRefreshToken)
	f.store.Seed(tokenstore.KeyUserID, testUserID)
	_, err := f.manager.Restore(context.Background())
	require.NoError(t, err)
	return f
}

func TestAccessTokenExpiry(t *testing.T) {
	exp := fixedNow.Add(time.Hour)
	got, ok := session.AccessTokenExpiry(mintAccessToken(t, exp))
	require.True(t, ok)
	require.True(t, exp.Equal(got))

	_, ok = session.AccessTokenExpiry("opaque-token")
	require.False(t, ok)

	noExp, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{"sub": "x"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, ok = session.AccessTokenExpiry(noExp)
	require.False(t, ok)
}

func TestTokenSource(t *testing.T) {
	t.Run("valid token is used as is", func(t *testing.T) {
		access := mintAccessToken(t, fixedNow.Add(time.Hour))
		f := setupJWTFixture(t, access)

		tok, err := f.manager.TokenSource(context.Background()).Token()
		require.NoError(t, err)
		require.Equal(t, access, tok.AccessToken)
		require.Equal(t, "Bearer", tok.TokenType)
		require.True(t, fixedNow.Add(time.Hour).Equal(tok.Expiry))
		require.Empty(t, f.api.Calls(apifake.OpRefresh))
	})

	t.Run("token inside the leeway is refreshed", func(t *testing.T) {
		f := setupJWTFixture(t, mintAccessToken(t, fixedNow.Add(10*time.Second)))
		fresh := mintAccessToken(t, fixedNow.Add(time.Hour))
		f.api.On(apifake.OpRefresh, loginResponse(fresh, "refresh-2", testUserID), nil)

		tok, err := f.manager.TokenSource(context.Background()).Token()
		require.NoError(t, err)
		require.Equal(t, fresh, tok.AccessToken)
		require.Equal(t, "refresh-2", tok.RefreshToken)
		require.Len(t, f.api.Calls(apifake.OpRefresh), 1)
	})

	t.Run("opaque token is never refreshed", func(t *testing.T) {
		f := setupJWTFixture(t, testAccessToken)

		tok, err := f.manager.TokenSource(context.Background()).Token()
		require.NoError(t, err)
		require.Equal(t, testAccessToken, tok.AccessToken)
		require.True(t, tok.Expiry.IsZero())
		require.Empty(t, f.api.Calls(apifake.OpRefresh))
	})

	t.Run("unauthenticated session has no token", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.manager.TokenSource(context.Background()).Token()
		require.Error(t, err)
	})
}

func TestHTTPClient(t *testing.T) {
	var calls atomic.Int32
	var lastAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		lastAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	f := setupAuthenticatedFixture(t)
	client := f.manager.HTTPClient(context.Background(), srv.Client())

	resp, err := client.Get(srv.URL + "/profile")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "Bearer "+testAccessToken, lastAuth.Load())

	require.NoError(t, f.manager.Logout(context.Background()))

	_, err = client.Get(srv.URL + "/profile")
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}
