package config

import "time"

const (
	restoreTimeoutVar = "SESSION_RESTORE_TIMEOUT"
	loginRateVar      = "LOGIN_RATE_PER_SECOND"
	loginBurstVar     = "LOGIN_BURST"
)

type SessionConfig interface {
	GetRestoreTimeout() time.Duration
	GetLoginRate() float64
	GetLoginBurst() int
}

type Session struct {
	file *File
}

var _ SessionConfig = Session{}

func (s Session) GetRestoreTimeout() time.Duration {
	return GetDurationEnv(restoreTimeoutVar, s.file.Session.RestoreTimeout, 5*time.Second)
}

// GetLoginRate is the sustained number of login attempts per second allowed
// before the client throttles locally.
func (s Session) GetLoginRate() float64 {
	return getFloatEnv(loginRateVar, s.file.Session.LoginRate, 0.2)
}

func (s Session) GetLoginBurst() int {
	return getIntEnv(loginBurstVar, s.file.Session.LoginBurst, 5)
}
