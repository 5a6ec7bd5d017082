package tokenstore

import (
	"context"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

// Keys persisted by the session manager. KeyThemeMode shares the store but is
// owned by the presentation layer.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserID       = "userId"
	KeyThemeMode    = "themeMode"
)

// SessionKeys lists the credential keys in persistence order.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUserID}

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = autherrors.ErrNotFound

// Store is platform secure key-value storage for opaque credential strings.
// Every call may fail; callers decide whether a failure is fatal.
type Store interface {
	// Get returns the value for key or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}
