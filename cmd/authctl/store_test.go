package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_UnreadableFileStartsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.enc")
	require.NoError(t, os.WriteFile(path, []byte("not an envelope"), 0o600))
	t.Setenv("TOKEN_STORE_PATH", path)
	t.Setenv("TOKEN_STORE_PASSPHRASE", "pass")

	var logs bytes.Buffer
	store, err := openStore(config.New(), logging.NewWithWriter(&logs, "test", "warn"))
	require.NoError(t, err)
	require.NotNil(t, store)
	require.Contains(t, logs.String(), "token store unreadable")
}

func TestOpenStore_MissingPassphraseIsFatal(t *testing.T) {
	t.Setenv("TOKEN_STORE_PATH", filepath.Join(t.TempDir(), "tokens.enc"))
	t.Setenv("TOKEN_STORE_PASSPHRASE", "")

	_, err := openStore(config.New(), zerolog.Nop())
	require.ErrorContains(t, err, "TOKEN_STORE_PASSPHRASE")
}
