package session

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-auth-client/authapi"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

// Login authenticates with email and password. Blank fields fail locally
// without a network call. On success the access token, refresh token and user
// id are persisted in that order and the session becomes Authenticated.
func (m *Manager) Login(ctx context.Context, email, password string) (*authapi.AuthResponse, error) {
	if !m.ready() {
		m.metrics.observe(OpLogin, outcomeRejected)
		return nil, notReadyError()
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, m.reject(OpLogin, validationError(autherrors.ErrMissingCredentials, "Please enter both email and password"))
	}

	if m.loginLimiter != nil && !m.loginLimiter.Allow() {
		return nil, m.reject(OpLogin, &AuthError{
			Kind:    KindThrottled,
			Message: autherrors.ErrLoginThrottled.Error(),
			Err:     autherrors.ErrLoginThrottled,
		})
	}

	return m.establish(ctx, OpLogin, func(ctx context.Context) (*authapi.AuthResponse, error) {
		return m.api.Login(ctx, authapi.LoginRequest{Email: email, Password: password})
	})
}

// GoogleTokenLogin exchanges a Google access token for a session.
func (m *Manager) GoogleTokenLogin(ctx context.Context, accessToken string) (*authapi.AuthResponse, error) {
	if !m.ready() {
		m.metrics.observe(OpGoogleLogin, outcomeRejected)
		return nil, notReadyError()
	}
	if accessToken == "" {
		return nil, m.reject(OpGoogleLogin, validationError(autherrors.ErrMissingToken, "Google sign-in did not return a token"))
	}

	return m.establish(ctx, OpGoogleLogin, func(ctx context.Context) (*authapi.AuthResponse, error) {
		return m.api.GoogleTokenLogin(ctx, accessToken)
	})
}

// AppleTokenLogin exchanges an Apple identity token for a session. name is
// only supplied by Apple on the first authorization.
func (m *Manager) AppleTokenLogin(ctx context.Context, idToken, name string) (*authapi.AuthResponse, error) {
	if !m.ready() {
		m.metrics.observe(OpAppleLogin, outcomeRejected)
		return nil, notReadyError()
	}
	if idToken == "" {
		return nil, m.reject(OpAppleLogin, validationError(autherrors.ErrMissingToken, "Apple sign-in did not return a token"))
	}

	return m.establish(ctx, OpAppleLogin, func(ctx context.Context) (*authapi.AuthResponse, error) {
		return m.api.AppleTokenLogin(ctx, idToken, strings.TrimSpace(name))
	})
}

// Register creates an account. It never authenticates: the caller logs in
// separately once registration succeeds.
func (m *Manager) Register(ctx context.Context, name, email, password, confirmPassword string) (*authapi.AuthResponse, error) {
	if !m.ready() {
		m.metrics.observe(OpRegister, outcomeRejected)
		return nil, notReadyError()
	}

	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" || confirmPassword == "" {
		return nil, m.reject(OpRegister, validationError(autherrors.ErrMissingFields, "Please fill in all fields"))
	}
	if password != confirmPassword {
		return nil, m.reject(OpRegister, validationError(autherrors.ErrPasswordMismatch, "Passwords do not match"))
	}

	return m.request(ctx, OpRegister, func(ctx context.Context) (*authapi.AuthResponse, error) {
		return m.api.Register(ctx, authapi.RegisterRequest{Name: name, Email: email, Password: password})
	})
}

// ForgotPassword asks the backend to send a recovery code to email.
func (m *Manager) ForgotPassword(ctx context.Context, email string) (*authapi.AuthResponse, error) {
	if !m.ready() {
		m.metrics.observe(OpForgotPassword, outcomeRejected)
		return nil, notReadyError()
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, m.reject(OpForgotPassword, validationError(autherrors.ErrMissingFields, "Please enter your email address"))
	}

	return m.request(ctx, OpForgotPassword, func(ctx context.Context) (*authapi.AuthResponse, error) {
		return m.api.ForgotPassword(ctx, authapi.ForgotPasswordRequest{Email: email})
	})
}

// ResetPassword sets a new password using a recovery code. Like Register it
// does not authenticate.
func (m *Manager) ResetPassword(ctx context.Context, email, code, password, confirmPassword string) (*authapi.AuthResponse, error) {
	if !m.ready() {
		m.metrics.observe(OpResetPassword, outcomeRejected)
		return nil, notReadyError()
	}

	email, code = strings.TrimSpace(email), strings.TrimSpace(code)
	if email == "" || code == "" || password == "" || confirmPassword == "" {
		return nil, m.reject(OpResetPassword, validationError(autherrors.ErrMissingFields, "Please fill in both fields"))
	}
	if password != confirmPassword {
		return nil, m.reject(OpResetPassword, validationError(autherrors.ErrPasswordMismatch, "Passwords do not match"))
	}

	return m.request(ctx, OpResetPassword, func(ctx context.Context) (*authapi.AuthResponse, error) {
		return m.api.ResetPassword(ctx, authapi.ResetPasswordRequest{Email: email, Code: code, Password: password})
	})
}

// establish runs a credential-issuing call and commits the returned session
// unless a logout happened meanwhile. A failure only publishes the error.
func (m *Manager) establish(ctx context.Context, op string, call func(context.Context) (*authapi.AuthResponse, error)) (*authapi.AuthResponse, error) {
	st := m.begin()
	defer m.container.endOp()
	m.container.clearError()

	resp, err := call(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loggedOutSince(st) {
		m.log.Debug().Str("op", op).Msg("discarding superseded result")
		m.metrics.observe(op, outcomeSuperseded)
		return nil, supersededError()
	}

	if err != nil {
		aerr := Classify(err)
		m.container.setError(aerr)
		m.metrics.observe(op, outcomeFailure)
		m.log.Info().Str("op", op).Str("kind", string(aerr.Kind)).Msg("authentication failed")
		return nil, aerr
	}

	accessToken := resp.GetAccessToken()
	refreshToken := resp.GetRefreshToken()
	userID := resp.ResolvedUserID()
	if accessToken == "" || refreshToken == "" || userID == "" {
		aerr := &AuthError{Kind: KindServer, Message: "incomplete session in response", Err: autherrors.ErrIncompleteSession}
		m.container.setError(aerr)
		m.metrics.observe(op, outcomeFailure)
		m.log.Warn().Str("op", op).
			Bool("accessToken", accessToken != "").
			Bool("refreshToken", refreshToken != "").
			Bool("userId", userID != "").
			Msg("server response is missing session fields")
		return nil, aerr
	}

	m.commitSession(ctx, userID, accessToken, refreshToken, resp.User)
	m.metrics.observe(op, outcomeSuccess)
	m.log.Info().Str("op", op).Str("userId", userID).Msg("session established")
	return resp, nil
}

// request runs a call that never changes credentials; only loading and error are published.
func (m *Manager) request(ctx context.Context, op string, call func(context.Context) (*authapi.AuthResponse, error)) (*authapi.AuthResponse, error) {
	m.container.beginOp()
	defer m.container.endOp()
	m.container.clearError()

	resp, err := call(ctx)
	if err != nil {
		aerr := Classify(err)
		m.container.setError(aerr)
		m.metrics.observe(op, outcomeFailure)
		m.log.Info().Str("op", op).Str("kind", string(aerr.Kind)).Msg("request failed")
		return nil, aerr
	}

	m.metrics.observe(op, outcomeSuccess)
	return resp, nil
}

// reject publishes a local failure without touching the network or credentials.
func (m *Manager) reject(op string, aerr *AuthError) *AuthError {
	m.container.setError(aerr)
	m.metrics.observe(op, outcomeRejected)
	return aerr
}
