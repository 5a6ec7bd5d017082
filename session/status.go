package session

// Status is the lifecycle position of the session state machine.
//
//	Unknown -> Restoring -> {Authenticated | Unauthenticated}
//	Unauthenticated -> Authenticated   (login, social login, refresh)
//	Authenticated -> Unauthenticated   (logout, failed refresh)
//	Authenticated -> Authenticated     (refresh rotating tokens)
type Status int

const (
	StatusUnknown Status = iota
	StatusRestoring
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusRestoring:
		return "restoring"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// Settled reports whether s is a terminal steady state.
func (s Status) Settled() bool {
	return s == StatusAuthenticated || s == StatusUnauthenticated
}
