package authapi

import "context"

// Client issues the backend's auth calls. Implementations are stateless: the
// caller supplies every credential. Failures are *Error (the server answered
// with a non-2xx status) or *NetworkError (no response).
type Client interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*AuthResponse, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) (*AuthResponse, error)

	// Refresh presents refreshToken as the bearer credential
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)

	// Logout presents accessToken as the bearer credential
	Logout(ctx context.Context, accessToken string) error

	GoogleTokenLogin(ctx context.Context, accessToken string) (*AuthResponse, error)
	AppleTokenLogin(ctx context.Context, idToken, name string) (*AuthResponse, error)
}

// Endpoint paths relative to the API base URL.
const (
	RouteRegister       = "/auth/register"
	RouteLogin          = "/auth/login"
	RouteForgotPassword = "/auth/forgot-password"
	RouteResetPassword  = "/auth/reset-password"
	RouteRefresh        = "/auth/refresh"
	RouteLogout         = "/auth/logout"
	RouteGoogleToken    = "/auth/google/token"
	RouteAppleToken     = "/auth/apple/token"
)
