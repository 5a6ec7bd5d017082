package authapi

import "github.com/jrsteele09/go-auth-client/internal/utils"

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest asks the backend to send a recovery code.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest exchanges a recovery code for a new password.
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type googleTokenRequest struct {
	AccessToken string `json:"access_token"`
}

type appleTokenRequest struct {
	IDToken string `json:"id_token"`
	Name    string `json:"name,omitempty"`
}

// User is the profile summary returned alongside tokens.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
	Username       string `json:"username,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// AuthResponse is the shared success payload of every auth endpoint. Which
// fields are present depends on the endpoint: login and social login return
// all of them, refresh returns the token pair, register and logout may
// return only a message.
type AuthResponse struct {
	// AccessToken is the short-lived bearer credential (JWT).
	// Usage: "Authorization: Bearer <accessToken>"
	AccessToken *string `json:"accessToken,omitempty"`

	// RefreshToken is the long-lived credential presented to /auth/refresh.
	// It may rotate on every refresh.
	RefreshToken *string `json:"refreshToken,omitempty"`

	// UserID identifies the account. Some responses only carry it inside User.
	UserID *string `json:"userId,omitempty"`

	// User is the profile summary, when the endpoint returns one.
	User *User `json:"user,omitempty"`

	// Message is an informational server message (e.g. "Registered").
	Message string `json:"message,omitempty"`
}

// GetAccessToken is nil safe.
func (r *AuthResponse) GetAccessToken() string {
	if r == nil {
		return ""
	}
	return utils.Value(r.AccessToken)
}

// GetRefreshToken is nil safe.
func (r *AuthResponse) GetRefreshToken() string {
	if r == nil {
		return ""
	}
	return utils.Value(r.RefreshToken)
}

// ResolvedUserID returns UserID, falling back to User.ID.
func (r *AuthResponse) ResolvedUserID() string {
	if r == nil {
		return ""
	}
	userID := utils.Value(r.UserID)
	if r.User != nil {
		return utils.FirstNonEmpty(userID, r.User.ID)
	}
	return userID
}
