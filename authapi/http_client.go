package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"golang.org/x/oauth2"
)

const (
	// RequestIDHeader correlates client and server logs for one call.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes   = 1 << 20
	defaultTimeout = 15 * time.Second
)

var _ Client = (*HTTPClient)(nil)

// HTTPClient talks to the backend's /auth endpoints over JSON.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	requestID  func() string

	// base and timeout are option inputs; httpClient is built from them.
	base    *http.Client
	timeout time.Duration
}

// HTTPClientOption defines a function type to modify the HTTPClient instance.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient sets the client whose transport carries requests. It is
// copied, never modified.
func WithHTTPClient(c *http.Client) HTTPClientOption {
	return func(hc *HTTPClient) {
		hc.base = c
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) HTTPClientOption {
	return func(hc *HTTPClient) {
		hc.timeout = d
	}
}

// WithRequestIDFunc sets the X-Request-ID generator (primarily for testing)
func WithRequestIDFunc(f func() string) HTTPClientOption {
	return func(hc *HTTPClient) {
		hc.requestID = f
	}
}

// NewHTTPClient creates a client for the API rooted at baseURL (e.g. "http://localhost:3005").
func NewHTTPClient(baseURL string, options ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		requestID: uuid.NewString,
	}
	for _, opt := range options {
		opt(c)
	}
	c.httpClient = buildHTTPClient(c.base, c.timeout)
	return c
}

// buildHTTPClient copies base (or starts from the default) and applies timeout when set.
func buildHTTPClient(base *http.Client, timeout time.Duration) *http.Client {
	built := &http.Client{Timeout: defaultTimeout}
	if base != nil {
		cp := *base
		built = &cp
	}
	if timeout > 0 {
		built.Timeout = timeout
	}
	return built
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	return c.post(ctx, RouteRegister, req, "")
}

func (c *HTTPClient) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	return c.post(ctx, RouteLogin, req, "")
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*AuthResponse, error) {
	return c.post(ctx, RouteForgotPassword, req, "")
}

func (c *HTTPClient) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*AuthResponse, error) {
	return c.post(ctx, RouteResetPassword, req, "")
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, autherrors.Wrapf(autherrors.ErrNoRefreshToken, "[HTTPClient Refresh]")
	}
	return c.post(ctx, RouteRefresh, struct{}{}, refreshToken)
}

func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return autherrors.Wrapf(autherrors.ErrMissingToken, "[HTTPClient Logout]")
	}
	_, err := c.post(ctx, RouteLogout, struct{}{}, accessToken)
	return err
}

func (c *HTTPClient) GoogleTokenLogin(ctx context.Context, accessToken string) (*AuthResponse, error) {
	return c.post(ctx, RouteGoogleToken, googleTokenRequest{AccessToken: accessToken}, "")
}

func (c *HTTPClient) AppleTokenLogin(ctx context.Context, idToken, name string) (*AuthResponse, error) {
	return c.post(ctx, RouteAppleToken, appleTokenRequest{IDToken: idToken, Name: name}, "")
}

// post sends body as JSON. A non-empty bearer is attached as the Authorization header.
func (c *HTTPClient) post(ctx context.Context, route string, body any, bearer string) (*AuthResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("[HTTPClient %s] encode: %w", route, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("[HTTPClient %s] request: %w", route, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, c.requestID())

	resp, err := c.client(ctx, bearer).Do(req)
	if err != nil {
		return nil, &NetworkError{Op: route, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: route, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(resp.StatusCode, data)
	}

	out := &AuthResponse{}
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "malformed response body"}
	}
	return out, nil
}

// client returns the transport for one call. Bearer calls go through an
// oauth2 transport over the configured client.
func (c *HTTPClient) client(ctx context.Context, bearer string) *http.Client {
	if bearer == "" {
		return c.httpClient
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	bc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: bearer,
		TokenType:   "Bearer",
	}))
	bc.Timeout = c.httpClient.Timeout
	return bc
}
