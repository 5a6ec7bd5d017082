package main

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/authapi/apifake"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/utils"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/tokenstore/storefake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type cliFixture struct {
	api *apifake.FakeClient
	out *bytes.Buffer
	app *app
}

func setupCLI(t *testing.T) *cliFixture {
	t.Helper()
	t.Setenv(passwordEnvVar, "")
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("APPLE_CLIENT_ID", "")

	api := apifake.NewFakeClient()
	m, err := session.NewManager(api, storefake.NewFakeStore(), session.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	_, err = m.Restore(context.Background())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	a := newCLIApp(m, config.New(), out, zerolog.Nop())
	a.watchRoutes()
	return &cliFixture{api: api, out: out, app: a}
}

func TestDispatch_LoginStatusLogout(t *testing.T) {
	f := setupCLI(t)
	f.api.On(apifake.OpLogin, &authapi.AuthResponse{
		AccessToken:  utils.Ptr("access-1"),
		RefreshToken: utils.Ptr("refresh-1"),
		UserID:       utils.Ptr("user-1"),
	}, nil)

	require.NoError(t, f.app.dispatch(context.Background(), "login", []string{"-email", "jane@x.com", "-password", "pw"}))
	require.Contains(t, f.out.String(), "signed in as user-1")
	require.True(t, f.app.gate.Ready())

	f.out.Reset()
	require.NoError(t, f.app.dispatch(context.Background(), "status", nil))
	require.Contains(t, f.out.String(), "status: authenticated")
	require.Contains(t, f.out.String(), "user:   user-1")

	f.out.Reset()
	require.NoError(t, f.app.dispatch(context.Background(), "token", nil))
	require.Equal(t, "access-1\n", f.out.String())

	f.out.Reset()
	require.NoError(t, f.app.dispatch(context.Background(), "logout", nil))
	require.Contains(t, f.out.String(), "signed out")
	require.False(t, f.app.manager.State().IsAuthenticated())
}

func TestDispatch_PasswordFromEnvironment(t *testing.T) {
	f := setupCLI(t)
	t.Setenv(passwordEnvVar, "from-env")

	require.NoError(t, f.app.dispatch(context.Background(), "forgot", []string{"-email", "jane@x.com"}))
	require.NoError(t, f.app.dispatch(context.Background(), "reset", []string{"-email", "jane@x.com", "-code", "123456"}))

	calls := f.api.Calls(apifake.OpResetPassword)
	require.Len(t, calls, 1)
	require.Equal(t, authapi.ResetPasswordRequest{Email: "jane@x.com", Code: "123456", Password: "from-env"}, calls[0].Arg)
}

func TestDispatch_UserFacingErrors(t *testing.T) {
	f := setupCLI(t)
	f.api.On(apifake.OpLogin, nil, &authapi.Error{StatusCode: http.StatusUnauthorized, Message: "Invalid password for jane@x.com"})

	err := f.app.dispatch(context.Background(), "login", []string{"-email", "jane@x.com", "-password", "pw"})
	require.Error(t, err)
	require.NotContains(t, err.Error(), "jane@x.com")

	err = f.app.dispatch(context.Background(), "register", []string{"-name", "Jane", "-email", "jane@x.com", "-password", "a", "-confirm", "b"})
	require.Error(t, err)
	require.Empty(t, f.api.Calls(apifake.OpRegister))
}

func TestDispatch_SocialRequiresConfig(t *testing.T) {
	f := setupCLI(t)
	require.ErrorContains(t, f.app.dispatch(context.Background(), "google-url", nil), "GOOGLE_CLIENT_ID")
	require.ErrorContains(t, f.app.dispatch(context.Background(), "apple", []string{"-id-token", "x"}), "APPLE_CLIENT_ID")
}

func TestDispatch_UnknownCommand(t *testing.T) {
	f := setupCLI(t)
	require.Error(t, f.app.dispatch(context.Background(), "frobnicate", nil))
	require.Contains(t, f.out.String(), "usage: authctl")
}
