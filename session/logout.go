package session

import (
	"context"

	"github.com/jrsteele09/go-auth-client/tokenstore"
)

// Logout ends the session. Local teardown happens first and always wins; the
// backend logout call is best effort and its failure is only logged.
func (m *Manager) Logout(ctx context.Context) error {
	if !m.ready() {
		m.metrics.observe(OpLogout, outcomeRejected)
		return notReadyError()
	}

	m.mu.Lock()
	m.generation++
	m.logouts++
	accessToken := m.container.Snapshot().AccessToken
	if accessToken == "" {
		accessToken = m.readKey(ctx, tokenstore.KeyAccessToken)
	}
	m.teardown(ctx)
	m.mu.Unlock()

	m.metrics.observe(OpLogout, outcomeSuccess)
	m.log.Info().Msg("session cleared")

	if accessToken == "" {
		return nil
	}

	m.container.beginOp()
	defer m.container.endOp()
	if err := m.api.Logout(ctx, accessToken); err != nil {
		m.log.Warn().Err(err).Msg("backend logout failed, local session already cleared")
	}
	return nil
}
