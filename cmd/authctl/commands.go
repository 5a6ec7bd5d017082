package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/gate"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/social"
	"github.com/rs/zerolog"
)

const passwordEnvVar = "AUTH_PASSWORD"

type command struct {
	name  string
	usage string
	run   func(a *app, ctx context.Context, fs *flag.FlagSet, args []string) error
}

var commands = []command{
	{"status", "show the current session", (*app).status},
	{"login", "-email E [-password P] sign in with email and password", (*app).login},
	{"register", "-name N -email E [-password P -confirm P] create an account", (*app).register},
	{"logout", "end the session", (*app).logout},
	{"refresh", "exchange the refresh token for a new access token", (*app).refresh},
	{"forgot", "-email E request a password reset code", (*app).forgot},
	{"reset", "-email E -code C [-password P -confirm P] reset the password", (*app).reset},
	{"token", "print a valid access token, refreshing it when it is about to expire", (*app).token},
	{"google-url", "print a Google consent URL and its PKCE verifier", (*app).googleURL},
	{"google", "-code C -verifier V sign in with a Google authorization code", (*app).google},
	{"apple", "-id-token T [-name N] sign in with an Apple ID token", (*app).apple},
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: authctl <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.usage)
	}
}

type app struct {
	manager *session.Manager
	cfg     config.SocialConfig
	out     io.Writer
	log     zerolog.Logger
	gate    *gate.Gate
}

func newCLIApp(m *session.Manager, cfg config.SocialConfig, out io.Writer, logger zerolog.Logger) *app {
	return &app{manager: m, cfg: cfg, out: out, log: logger}
}

func (a *app) watchRoutes() {
	a.gate = gate.New(&routeLogger{current: "/", log: a.log}, gate.DefaultRoutes())
	a.gate.Watch(a.manager.Container())
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	for _, c := range commands {
		if c.name != name {
			continue
		}
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.SetOutput(a.out)
		return c.run(a, ctx, fs, args)
	}
	printUsage(a.out)
	return fmt.Errorf("unknown command %q", name)
}

func (a *app) status(_ context.Context, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	s := a.manager.State()
	fmt.Fprintf(a.out, "status: %s\n", s.Status)
	if s.IsAuthenticated() {
		fmt.Fprintf(a.out, "user:   %s\n", s.UserID)
		if exp, ok := session.AccessTokenExpiry(s.AccessToken); ok {
			fmt.Fprintf(a.out, "expiry: %s\n", exp.Format("2006-01-02 15:04:05 MST"))
		}
	}
	return nil
}

func (a *app) login(ctx context.Context, fs *flag.FlagSet, args []string) error {
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (or "+passwordEnvVar+")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.manager.Login(ctx, *email, secret(*password)); err != nil {
		return userError(err)
	}
	fmt.Fprintf(a.out, "signed in as %s\n", a.manager.State().UserID)
	return nil
}

func (a *app) register(ctx context.Context, fs *flag.FlagSet, args []string) error {
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (or "+passwordEnvVar+")")
	confirm := fs.String("confirm", "", "password confirmation (defaults to the password)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pw := secret(*password)
	if *confirm == "" {
		*confirm = pw
	}
	resp, err := a.manager.Register(ctx, *name, *email, pw, *confirm)
	if err != nil {
		return userError(err)
	}
	fmt.Fprintln(a.out, messageOr(resp, "account created, sign in to continue"))
	return nil
}

func (a *app) logout(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.manager.Logout(ctx); err != nil {
		return userError(err)
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func (a *app) refresh(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.manager.Refresh(ctx); err != nil {
		return userError(err)
	}
	fmt.Fprintln(a.out, "access token refreshed")
	return nil
}

func (a *app) forgot(ctx context.Context, fs *flag.FlagSet, args []string) error {
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := a.manager.ForgotPassword(ctx, *email)
	if err != nil {
		return userError(err)
	}
	fmt.Fprintln(a.out, messageOr(resp, "if the account exists a reset code has been sent"))
	return nil
}

func (a *app) reset(ctx context.Context, fs *flag.FlagSet, args []string) error {
	email := fs.String("email", "", "account email")
	code := fs.String("code", "", "reset code from the email")
	password := fs.String("password", "", "new password (or "+passwordEnvVar+")")
	confirm := fs.String("confirm", "", "password confirmation (defaults to the password)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pw := secret(*password)
	if *confirm == "" {
		*confirm = pw
	}
	resp, err := a.manager.ResetPassword(ctx, *email, *code, pw, *confirm)
	if err != nil {
		return userError(err)
	}
	fmt.Fprintln(a.out, messageOr(resp, "password updated"))
	return nil
}

func (a *app) token(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	tok, err := a.manager.TokenSource(ctx).Token()
	if err != nil {
		return userError(err)
	}
	fmt.Fprintln(a.out, tok.AccessToken)
	return nil
}

func (a *app) googleFlow() (*social.GoogleFlow, error) {
	if a.cfg.GetGoogleClientID() == "" {
		return nil, errors.New("GOOGLE_CLIENT_ID is not configured")
	}
	return social.NewGoogleFlow(a.cfg.GetGoogleClientID(), a.cfg.GetGoogleClientSecret(), a.cfg.GetGoogleRedirectURL()), nil
}

func (a *app) googleURL(_ context.Context, fs *flag.FlagSet, args []string) error {
	state := fs.String("state", "authctl", "opaque state echoed back on the redirect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	flow, err := a.googleFlow()
	if err != nil {
		return err
	}
	verifier := social.NewVerifier()
	fmt.Fprintf(a.out, "verifier: %s\nurl:      %s\n", verifier, flow.AuthCodeURL(*state, verifier))
	return nil
}

func (a *app) google(ctx context.Context, fs *flag.FlagSet, args []string) error {
	code := fs.String("code", "", "authorization code from the redirect")
	verifier := fs.String("verifier", "", "verifier printed by google-url")
	if err := fs.Parse(args); err != nil {
		return err
	}
	flow, err := a.googleFlow()
	if err != nil {
		return err
	}
	if _, err := flow.Login(ctx, a.manager, *code, *verifier); err != nil {
		return userError(err)
	}
	fmt.Fprintf(a.out, "signed in as %s\n", a.manager.State().UserID)
	return nil
}

func (a *app) apple(ctx context.Context, fs *flag.FlagSet, args []string) error {
	idToken := fs.String("id-token", "", "Apple identity token")
	name := fs.String("name", "", "full name from the first authorization")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.cfg.GetAppleClientID() == "" {
		return errors.New("APPLE_CLIENT_ID is not configured")
	}
	verifier, err := social.DiscoverVerifier(ctx, social.IssuerApple, a.cfg.GetAppleClientID())
	if err != nil {
		return err
	}
	if _, err := verifier.AppleLogin(ctx, a.manager, *idToken, *name); err != nil {
		return userError(err)
	}
	fmt.Fprintf(a.out, "signed in as %s\n", a.manager.State().UserID)
	return nil
}

func secret(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(passwordEnvVar)
}

func messageOr(resp *authapi.AuthResponse, fallback string) string {
	if resp != nil && strings.TrimSpace(resp.Message) != "" {
		return resp.Message
	}
	return fallback
}

// userError swaps raw server text for the presentation message.
func userError(err error) error {
	var aerr *session.AuthError
	if errors.As(err, &aerr) {
		return errors.New(aerr.UserMessage())
	}
	return err
}
