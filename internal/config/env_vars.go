package config

import (
	"os"
	"strconv"
	"time"
)

const (
	appNameVar  = "APP_NAME"
	envVar      = "ENV"
	logLevelVar = "LOG_LEVEL"
)

type EnvVars struct {
	file *File
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return GetEnv(appNameVar, orDefault(e.file.AppName, "Auth Client"))
}

func (e EnvVars) GetEnv() string {
	return GetEnv(envVar, orDefault(e.file.Env, "DEV"))
}

func (e EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, orDefault(e.file.LogLevel, "info"))
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetDurationEnv parses a duration such as "5s". Unparseable values fall back to the default.
func GetDurationEnv(envVar, fileValue string, defaultValue time.Duration) time.Duration {
	raw := GetEnv(envVar, fileValue)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getFloatEnv(envVar string, fileValue, defaultValue float64) float64 {
	if raw := os.Getenv(envVar); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}

func getIntEnv(envVar string, fileValue, defaultValue int) int {
	if raw := os.Getenv(envVar); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
