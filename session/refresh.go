package session

import (
	"context"

	"github.com/jrsteele09/go-auth-client/authapi"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/internal/utils"
	"github.com/jrsteele09/go-auth-client/tokenstore"
)

const refreshFlightKey = "refresh"

// Refresh exchanges the refresh token for a new access token. Concurrent
// callers share a single network call. Any failure ends the session: the
// store is cleared and the status becomes Unauthenticated.
func (m *Manager) Refresh(ctx context.Context) (*authapi.AuthResponse, error) {
	if !m.ready() {
		m.metrics.observe(OpRefresh, outcomeRejected)
		return nil, notReadyError()
	}

	v, err, _ := m.refreshGroup.Do(refreshFlightKey, func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	resp := *v.(*authapi.AuthResponse)
	return &resp, nil
}

func (m *Manager) refresh(ctx context.Context) (*authapi.AuthResponse, error) {
	st := m.begin()
	defer m.container.endOp()

	snap := m.container.Snapshot()
	refreshToken := snap.RefreshToken
	if refreshToken == "" {
		refreshToken = m.readKey(ctx, tokenstore.KeyRefreshToken)
	}
	if refreshToken == "" {
		return nil, m.endSession(ctx, st, &AuthError{
			Kind:    KindUnknown,
			Message: autherrors.ErrNoRefreshToken.Error(),
			Err:     autherrors.ErrNoRefreshToken,
		})
	}

	resp, err := m.api.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, m.endSession(ctx, st, Classify(err))
	}

	accessToken := resp.GetAccessToken()
	if accessToken == "" {
		return nil, m.endSession(ctx, st, &AuthError{
			Kind:    KindServer,
			Message: "refresh response has no access token",
			Err:     autherrors.ErrIncompleteSession,
		})
	}

	rotated := utils.FirstNonEmpty(resp.GetRefreshToken(), refreshToken)

	userID := resp.ResolvedUserID()
	userFromResponse := userID != ""
	if userID == "" {
		userID = snap.UserID
	}
	if userID == "" {
		userID = m.readKey(ctx, tokenstore.KeyUserID)
	}
	if userID == "" {
		return nil, m.endSession(ctx, st, &AuthError{
			Kind:    KindUnknown,
			Message: "no user id for refreshed session",
			Err:     autherrors.ErrIncompleteSession,
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.changedSince(st) {
		m.log.Debug().Str("op", OpRefresh).Msg("discarding superseded result")
		m.metrics.observe(OpRefresh, outcomeSuperseded)
		return nil, supersededError()
	}

	m.generation++
	m.writeKey(ctx, tokenstore.KeyAccessToken, accessToken)
	if rotated != refreshToken || snap.RefreshToken == "" {
		m.writeKey(ctx, tokenstore.KeyRefreshToken, rotated)
	}
	if userFromResponse && userID != snap.UserID {
		m.writeKey(ctx, tokenstore.KeyUserID, userID)
	}

	user := resp.User
	if user == nil && snap.User != nil && snap.User.ID == userID {
		user = snap.User
	}
	if user == nil {
		user = &authapi.User{ID: userID}
	}
	m.container.authenticate(userID, accessToken, rotated, user)

	m.metrics.observe(OpRefresh, outcomeSuccess)
	m.log.Info().Bool("rotated", rotated != refreshToken).Msg("session refreshed")
	return resp, nil
}

// endSession applies the fail-closed policy for a failed refresh. A refresh
// that was superseded leaves the newer state alone. The teardown does not
// advance the generation: a login already in flight carries fresh
// credentials and still commits after it.
func (m *Manager) endSession(ctx context.Context, st stamp, aerr *AuthError) *AuthError {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.changedSince(st) {
		m.metrics.observe(OpRefresh, outcomeSuperseded)
		return supersededError()
	}

	m.teardown(ctx)
	m.metrics.observe(OpRefresh, outcomeFailure)
	m.log.Info().Str("kind", string(aerr.Kind)).Msg("refresh failed, session ended")
	return aerr
}
