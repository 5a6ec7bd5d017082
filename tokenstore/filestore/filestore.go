// Package filestore implements tokenstore.Store as a single encrypted file.
//
// The file is a small JSON envelope holding the Argon2id salt, the
// XChaCha20-Poly1305 nonce and the sealed key/value map. Every write re-seals
// the whole map under a fresh nonce and replaces the file atomically.
package filestore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/tokenstore"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersion = 1
	saltLength      = 16
)

var _ tokenstore.Store = (*Store)(nil)

// KDFParams are the Argon2id cost parameters used to derive the file key.
type KDFParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultKDFParams follows the RFC 9106 second recommended option.
var DefaultKDFParams = KDFParams{Time: 3, MemoryKiB: 64 * 1024, Threads: 4}

type envelope struct {
	Version int       `json:"v"`
	KDF     KDFParams `json:"kdf"`
	Salt    []byte    `json:"salt"`
	Nonce   []byte    `json:"nonce"`
	Data    []byte    `json:"data"`
}

// Store is a passphrase sealed token file.
type Store struct {
	path   string
	kdf    KDFParams
	salt   []byte
	key    []byte
	values map[string]string
	lock   sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithKDFParams overrides the Argon2id cost. Existing files keep the
// parameters they were written with.
func WithKDFParams(p KDFParams) Option {
	return func(s *Store) {
		s.kdf = p
	}
}

// Open loads the token file at path, creating nothing until the first write.
// A wrong passphrase for an existing file returns ErrInvalidPass.
func Open(path, passphrase string, opts ...Option) (*Store, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("[filestore Open] passphrase is required")
	}

	s := &Store{
		path:   path,
		kdf:    DefaultKDFParams,
		values: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.salt = make([]byte, saltLength)
		if _, err := rand.Read(s.salt); err != nil {
			return nil, fmt.Errorf("[filestore Open] salt: %w", err)
		}
		s.key = deriveKey(passphrase, s.salt, s.kdf)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("[filestore Open] read: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Version != envelopeVersion || len(env.Salt) != saltLength ||
		env.KDF.Time == 0 || env.KDF.MemoryKiB == 0 || env.KDF.Threads == 0 {
		return nil, autherrors.ErrCorrupt
	}

	s.kdf = env.KDF
	s.salt = env.Salt
	s.key = deriveKey(passphrase, s.salt, s.kdf)

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("[filestore Open] cipher: %w", err)
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, autherrors.ErrCorrupt
	}
	plain, err := aead.Open(nil, env.Nonce, env.Data, s.additionalData())
	if err != nil {
		return nil, autherrors.ErrInvalidPass
	}
	if err := json.Unmarshal(plain, &s.values); err != nil {
		return nil, autherrors.ErrCorrupt
	}
	return s, nil
}

// OpenOrReset is Open for callers that treat an unreadable file as "no
// session". A corrupt file or one sealed under another passphrase is renamed
// to path.unreadable-<unix seconds> and a fresh store is returned together
// with the original error, which the caller should log. Other errors are
// returned as from Open.
func OpenOrReset(path, passphrase string, opts ...Option) (*Store, error) {
	s, err := Open(path, passphrase, opts...)
	if err == nil {
		return s, nil
	}
	if !autherrors.Is(err, autherrors.ErrCorrupt) && !autherrors.Is(err, autherrors.ErrInvalidPass) {
		return nil, err
	}

	aside := fmt.Sprintf("%s.unreadable-%d", path, time.Now().Unix())
	if rerr := os.Rename(path, aside); rerr != nil {
		return nil, fmt.Errorf("[filestore OpenOrReset] move aside: %w", rerr)
	}
	fresh, ferr := Open(path, passphrase, opts...)
	if ferr != nil {
		return nil, ferr
	}
	return fresh, autherrors.Wrapf(err, "[filestore OpenOrReset] moved %s to %s", path, aside)
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	v, ok := s.values[key]
	if !ok {
		return "", tokenstore.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return autherrors.Wrapf(err, "[filestore Set] %s", key)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	prev, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := s.flush(); err != nil {
		s.values[key] = prev
		return autherrors.Wrapf(err, "[filestore Delete] %s", key)
	}
	return nil
}

// flush seals the current map and atomically replaces the file. Caller holds the lock.
func (s *Store) flush() error {
	plain, err := json.Marshal(s.values)
	if err != nil {
		return err
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}

	out, err := json.Marshal(envelope{
		Version: envelopeVersion,
		KDF:     s.kdf,
		Salt:    s.salt,
		Nonce:   nonce,
		Data:    aead.Seal(nil, nonce, plain, s.additionalData()),
	})
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *Store) additionalData() []byte {
	return []byte(fmt.Sprintf("go-auth-client/v%d", envelopeVersion))
}

func deriveKey(passphrase string, salt []byte, p KDFParams) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.MemoryKiB, p.Threads, chacha20poly1305.KeySize)
}
