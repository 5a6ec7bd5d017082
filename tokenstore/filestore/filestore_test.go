package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/tokenstore"
	"github.com/jrsteele09/go-auth-client/tokenstore/filestore"
	"github.com/stretchr/testify/require"
)

var cheapKDF = filestore.WithKDFParams(filestore.KDFParams{Time: 1, MemoryKiB: 1024, Threads: 1})

func openTestStore(t *testing.T, path, passphrase string) *filestore.Store {
	t.Helper()
	s, err := filestore.Open(path, passphrase, cheapKDF)
	require.NoError(t, err)
	return s
}

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "tokens.enc"), "correct horse")

	_, err := s.Get(ctx, tokenstore.KeyAccessToken)
	require.ErrorIs(t, err, tokenstore.ErrNotFound)

	require.NoError(t, s.Set(ctx, tokenstore.KeyAccessToken, "access-1"))
	v, err := s.Get(ctx, tokenstore.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "access-1", v)

	require.NoError(t, s.Delete(ctx, tokenstore.KeyAccessToken))
	_, err = s.Get(ctx, tokenstore.KeyAccessToken)
	require.ErrorIs(t, err, tokenstore.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "never-set"))
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tokens.enc")

	s := openTestStore(t, path, "correct horse")
	require.NoError(t, s.Set(ctx, tokenstore.KeyRefreshToken, "refresh-1"))
	require.NoError(t, s.Set(ctx, tokenstore.KeyUserID, "user-1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(raw), "refresh-1"), "token file must not hold plaintext")

	reopened := openTestStore(t, path, "correct horse")
	v, err := reopened.Get(ctx, tokenstore.KeyUserID)
	require.NoError(t, err)
	require.Equal(t, "user-1", v)
}

func TestOpen_WrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.enc")
	s := openTestStore(t, path, "correct horse")
	require.NoError(t, s.Set(context.Background(), tokenstore.KeyAccessToken, "a"))

	_, err := filestore.Open(path, "battery staple", cheapKDF)
	require.ErrorIs(t, err, autherrors.ErrInvalidPass)
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.enc")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := filestore.Open(path, "correct horse", cheapKDF)
	require.ErrorIs(t, err, autherrors.ErrCorrupt)
}

func TestOpen_EmptyPassphrase(t *testing.T) {
	_, err := filestore.Open(filepath.Join(t.TempDir(), "tokens.enc"), "")
	require.Error(t, err)
}

func TestOpenOrReset(t *testing.T) {
	ctx := context.Background()

	t.Run("readable file opens normally", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.enc")
		require.NoError(t, openTestStore(t, path, "pass").Set(ctx, tokenstore.KeyUserID, "user-1"))

		s, err := filestore.OpenOrReset(path, "pass", cheapKDF)
		require.NoError(t, err)
		v, err := s.Get(ctx, tokenstore.KeyUserID)
		require.NoError(t, err)
		require.Equal(t, "user-1", v)
	})

	t.Run("wrong passphrase moves the file aside", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tokens.enc")
		require.NoError(t, openTestStore(t, path, "pass").Set(ctx, tokenstore.KeyUserID, "user-1"))

		s, err := filestore.OpenOrReset(path, "other", cheapKDF)
		require.ErrorIs(t, err, autherrors.ErrInvalidPass)
		require.NotNil(t, s)

		_, err = s.Get(ctx, tokenstore.KeyUserID)
		require.ErrorIs(t, err, tokenstore.ErrNotFound)
		require.NoError(t, s.Set(ctx, tokenstore.KeyUserID, "user-2"))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		var aside int
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), "tokens.enc.unreadable-") {
				aside++
			}
		}
		require.Equal(t, 1, aside)
	})

	t.Run("corrupt file moves the file aside", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.enc")
		require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

		s, err := filestore.OpenOrReset(path, "pass", cheapKDF)
		require.ErrorIs(t, err, autherrors.ErrCorrupt)
		require.NotNil(t, s)
	})

	t.Run("empty passphrase is still fatal", func(t *testing.T) {
		s, err := filestore.OpenOrReset(filepath.Join(t.TempDir(), "tokens.enc"), "", cheapKDF)
		require.Error(t, err)
		require.Nil(t, s)
	})
}
