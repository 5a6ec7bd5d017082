package config

import (
	"os"
	"path/filepath"
)

const (
	storePathVar       = "TOKEN_STORE_PATH"
	storePassphraseVar = "TOKEN_STORE_PASSPHRASE"
)

type StoreConfig interface {
	GetStorePath() string
	GetStorePassphrase() string
}

type Store struct {
	file *File
}

var _ StoreConfig = Store{}

func (s Store) GetStorePath() string {
	return GetEnv(storePathVar, orDefault(s.file.Store.Path, defaultStorePath()))
}

// GetStorePassphrase returns the passphrase sealing the token file. An empty
// value is rejected by the file store.
func (s Store) GetStorePassphrase() string {
	return GetEnv(storePassphraseVar, s.file.Store.Passphrase)
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data/tokens.enc"
	}
	return filepath.Join(dir, "go-auth-client", "tokens.enc")
}
