package session

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-client/authapi"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

// Kind classifies an AuthError for the presentation layer.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindAccountLocked      Kind = "account_locked"
	KindEmailExists        Kind = "email_exists"
	KindNetwork            Kind = "network"
	KindServer             Kind = "server"
	KindUnknown            Kind = "unknown"

	// KindNotReady rejects operations issued before Restore settles.
	KindNotReady Kind = "not_ready"
	// KindThrottled rejects login attempts over the local rate limit.
	KindThrottled Kind = "throttled"
	// KindSuperseded marks a result dropped because a later operation won.
	KindSuperseded Kind = "superseded"
)

// ErrSuperseded is wrapped by KindSuperseded errors.
var ErrSuperseded = autherrors.New("superseded by a later session operation")

// AuthError is the only error type returned by Manager operations.
type AuthError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// UserMessage is the copy to show for this error. Raw server text is never
// shown for credential or lock failures.
func (e *AuthError) UserMessage() string {
	switch e.Kind {
	case KindValidation:
		return e.Message
	case KindInvalidCredentials:
		return "Invalid email or password. Please try again."
	case KindAccountLocked:
		return "Your account has been locked. Please contact support."
	case KindEmailExists:
		return "Email already exists. Please use a different email."
	case KindNetwork:
		return "Unable to reach the server. Check your connection and try again."
	case KindNotReady:
		return "Still loading your session. Please try again in a moment."
	case KindThrottled:
		return "Too many attempts. Please wait a moment and try again."
	case KindServer, KindUnknown:
		if e.Message != "" {
			return e.Message
		}
	}
	return "An unexpected error occurred. Please try again."
}

var messageKinds = []struct {
	kind    Kind
	needles []string
}{
	{KindInvalidCredentials, []string{
		"invalid credentials",
		"invalid email",
		"invalid password",
		"incorrect email",
		"incorrect password",
		"user not found",
	}},
	{KindAccountLocked, []string{"account locked"}},
	{KindEmailExists, []string{"email already exist"}},
}

// ClassifyMessage maps a server message to a Kind by case-insensitive
// substring match. Unmatched messages are KindUnknown.
func ClassifyMessage(msg string) Kind {
	lower := strings.ToLower(msg)
	for _, mk := range messageKinds {
		for _, needle := range mk.needles {
			if strings.Contains(lower, needle) {
				return mk.kind
			}
		}
	}
	return KindUnknown
}

// Classify normalizes any error into an *AuthError. Message matches take
// precedence over transport shape.
func Classify(err error) *AuthError {
	if err == nil {
		return nil
	}

	var ae *AuthError
	if autherrors.As(err, &ae) {
		return ae
	}

	msg := err.Error()
	var apiErr *authapi.Error
	isAPI := autherrors.As(err, &apiErr)
	if isAPI {
		msg = apiErr.Message
	}

	kind := ClassifyMessage(msg)
	if kind == KindUnknown {
		var netErr *authapi.NetworkError
		switch {
		case autherrors.As(err, &netErr):
			kind = KindNetwork
		case isAPI && apiErr.StatusCode >= http.StatusInternalServerError:
			kind = KindServer
		}
	}
	return &AuthError{Kind: kind, Message: msg, Err: err}
}

func validationError(cause error, message string) *AuthError {
	return &AuthError{Kind: KindValidation, Message: message, Err: cause}
}

func notReadyError() *AuthError {
	return &AuthError{Kind: KindNotReady, Message: autherrors.ErrNotReady.Error(), Err: autherrors.ErrNotReady}
}

func supersededError() *AuthError {
	return &AuthError{Kind: KindSuperseded, Message: ErrSuperseded.Error(), Err: ErrSuperseded}
}
