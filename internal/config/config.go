package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileEnvVar names an optional YAML file whose values sit between the
// environment and the built-in defaults.
const FileEnvVar = "AUTH_CLIENT_CONFIG"

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
	SessionConfig
	SocialConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	API
	Store
	Session
	Social
}

// File mirrors the YAML config file layout. Empty fields fall through to defaults.
type File struct {
	AppName  string `yaml:"app_name"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	API      struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Store struct {
		Path       string `yaml:"path"`
		Passphrase string `yaml:"passphrase"`
	} `yaml:"store"`
	Session struct {
		RestoreTimeout string  `yaml:"restore_timeout"`
		LoginRate      float64 `yaml:"login_rate"`
		LoginBurst     int     `yaml:"login_burst"`
	} `yaml:"session"`
	Social struct {
		GoogleClientID     string `yaml:"google_client_id"`
		GoogleClientSecret string `yaml:"google_client_secret"`
		GoogleRedirectURL  string `yaml:"google_redirect_url"`
		AppleClientID      string `yaml:"apple_client_id"`
	} `yaml:"social"`
}

// New returns a Config backed by environment variables only.
func New() Config {
	return newMainConfig(&File{})
}

// Load returns a Config backed by the environment and, when set, the YAML
// file named by AUTH_CLIENT_CONFIG.
func Load() (Config, error) {
	path := os.Getenv(FileEnvVar)
	if path == "" {
		return New(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML config file. Environment variables still take precedence.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config LoadFile] read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes.
func Parse(data []byte) (Config, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("[config Parse] invalid yaml: %w", err)
	}
	return newMainConfig(f), nil
}

func newMainConfig(f *File) mainConfig {
	return mainConfig{
		EnvVars: EnvVars{file: f},
		API:     API{file: f},
		Store:   Store{file: f},
		Session: Session{file: f},
		Social:  Social{file: f},
	}
}
