package config

import (
	"strings"
	"time"
)

const (
	baseURLVar     = "API_BASE_URL"
	httpTimeoutVar = "API_TIMEOUT"
)

type APIConfig interface {
	GetBaseURL() string
	GetHTTPTimeout() time.Duration
}

type API struct {
	file *File
}

var _ APIConfig = API{}

// GetBaseURL returns the auth API root, e.g. "http://localhost:3005". Paths such
// as /auth/login are appended by the client.
func (a API) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, orDefault(a.file.API.BaseURL, "http://localhost:3005")), "/")
}

func (a API) GetHTTPTimeout() time.Duration {
	return GetDurationEnv(httpTimeoutVar, a.file.API.Timeout, 15*time.Second)
}
