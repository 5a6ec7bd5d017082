package authapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/authapi"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/internal/utils"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Path          string
	Authorization string
	RequestID     string
	Body          map[string]any
}

type recorder struct {
	requests []recordedRequest
	lock     sync.Mutex
}

func (r *recorder) add(rec recordedRequest) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.requests = append(r.requests, rec)
}

func (r *recorder) all() []recordedRequest {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]recordedRequest(nil), r.requests...)
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *recorder) {
	t.Helper()
	recorded := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rec := recordedRequest{
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get(authapi.RequestIDHeader),
		}
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		recorded.add(rec)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, recorded
}

func fixedID() string { return "req-1" }

func TestHTTPClient_Login(t *testing.T) {
	srv, recorded := newTestServer(t, http.StatusCreated,
		`{"accessToken":"a1","refreshToken":"r1","userId":"u1","user":{"id":"u1","name":"Jane"}}`)
	c := authapi.NewHTTPClient(srv.URL+"/", authapi.WithRequestIDFunc(fixedID))

	resp, err := c.Login(context.Background(), authapi.LoginRequest{Email: "jane@x.com", Password: "Secret1!"})
	require.NoError(t, err)
	require.Equal(t, "a1", utils.Value(resp.AccessToken))
	require.Equal(t, "r1", utils.Value(resp.RefreshToken))
	require.Equal(t, "u1", resp.ResolvedUserID())
	require.Equal(t, "Jane", resp.User.Name)

	require.Len(t, recorded.all(), 1)
	got := recorded.all()[0]
	require.Equal(t, authapi.RouteLogin, got.Path)
	require.Empty(t, got.Authorization)
	require.Equal(t, "req-1", got.RequestID)
	require.Equal(t, "jane@x.com", got.Body["email"])
	require.Equal(t, "Secret1!", got.Body["password"])
}

func TestHTTPClient_BearerCalls(t *testing.T) {
	t.Run("refresh presents the refresh token", func(t *testing.T) {
		srv, recorded := newTestServer(t, http.StatusOK, `{"accessToken":"a2","refreshToken":"r2"}`)
		c := authapi.NewHTTPClient(srv.URL)

		resp, err := c.Refresh(context.Background(), "r1")
		require.NoError(t, err)
		require.Equal(t, "a2", utils.Value(resp.AccessToken))
		require.Equal(t, "Bearer r1", recorded.all()[0].Authorization)
		require.Equal(t, authapi.RouteRefresh, recorded.all()[0].Path)
		require.NotEmpty(t, recorded.all()[0].RequestID)
	})

	t.Run("logout presents the access token", func(t *testing.T) {
		srv, recorded := newTestServer(t, http.StatusOK, ``)
		c := authapi.NewHTTPClient(srv.URL)

		require.NoError(t, c.Logout(context.Background(), "a1"))
		require.Equal(t, "Bearer a1", recorded.all()[0].Authorization)
		require.Equal(t, authapi.RouteLogout, recorded.all()[0].Path)
	})

	t.Run("missing bearer fails without a request", func(t *testing.T) {
		srv, recorded := newTestServer(t, http.StatusOK, ``)
		c := authapi.NewHTTPClient(srv.URL)

		_, err := c.Refresh(context.Background(), "")
		require.ErrorIs(t, err, autherrors.ErrNoRefreshToken)
		require.ErrorIs(t, c.Logout(context.Background(), ""), autherrors.ErrMissingToken)
		require.Empty(t, recorded.all())
	})
}

func TestHTTPClient_SocialBodies(t *testing.T) {
	srv, recorded := newTestServer(t, http.StatusOK, `{"accessToken":"a","refreshToken":"r","user":{"id":"u9"}}`)
	c := authapi.NewHTTPClient(srv.URL)

	resp, err := c.GoogleTokenLogin(context.Background(), "google-access")
	require.NoError(t, err)
	require.Equal(t, "u9", resp.ResolvedUserID())

	_, err = c.AppleTokenLogin(context.Background(), "apple-id-token", "Jane")
	require.NoError(t, err)

	require.Equal(t, authapi.RouteGoogleToken, recorded.all()[0].Path)
	require.Equal(t, "google-access", recorded.all()[0].Body["access_token"])
	require.Equal(t, authapi.RouteAppleToken, recorded.all()[1].Path)
	require.Equal(t, "apple-id-token", recorded.all()[1].Body["id_token"])
	require.Equal(t, "Jane", recorded.all()[1].Body["name"])
}

func TestHTTPClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"string message", http.StatusUnauthorized, `{"message":"Invalid credentials","statusCode":401}`, "Invalid credentials"},
		{"list message", http.StatusBadRequest, `{"message":["email must be an email","password too short"]}`, "email must be an email; password too short"},
		{"error field", http.StatusConflict, `{"error":"Email already exists"}`, "Email already exists"},
		{"plain text", http.StatusForbidden, `Account locked`, "Account locked"},
		{"empty body", http.StatusInternalServerError, ``, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			c := authapi.NewHTTPClient(srv.URL)

			_, err := c.Register(context.Background(), authapi.RegisterRequest{Name: "n", Email: "e", Password: "p"})
			var apiErr *authapi.Error
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.expected, apiErr.Message)
		})
	}
}

func TestHTTPClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := authapi.NewHTTPClient(url)
	_, err := c.ForgotPassword(context.Background(), authapi.ForgotPasswordRequest{Email: "jane@x.com"})

	var netErr *authapi.NetworkError
	require.True(t, errors.As(err, &netErr))
	require.Equal(t, authapi.RouteForgotPassword, netErr.Op)
}

func TestHTTPClient_TimeoutOptions(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slow.Close)
	t.Cleanup(func() { close(release) })

	t.Run("shared client is not modified", func(t *testing.T) {
		shared := &http.Client{Timeout: time.Minute}
		c := authapi.NewHTTPClient(slow.URL, authapi.WithHTTPClient(shared), authapi.WithTimeout(50*time.Millisecond))

		_, err := c.Login(context.Background(), authapi.LoginRequest{Email: "jane@x.com", Password: "pw"})
		var netErr *authapi.NetworkError
		require.ErrorAs(t, err, &netErr)
		require.Equal(t, time.Minute, shared.Timeout)
	})

	t.Run("timeout without a client", func(t *testing.T) {
		require.NotPanics(t, func() {
			c := authapi.NewHTTPClient(slow.URL, authapi.WithHTTPClient(nil), authapi.WithTimeout(50*time.Millisecond))
			_, err := c.Login(context.Background(), authapi.LoginRequest{Email: "jane@x.com", Password: "pw"})
			require.Error(t, err)
		})
	})
}
