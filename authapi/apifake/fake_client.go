package apifake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-auth-client/authapi"
)

var _ authapi.Client = (*FakeClient)(nil)

// Operation names accepted by On, Hold and Calls.
const (
	OpRegister       = "register"
	OpLogin          = "login"
	OpForgotPassword = "forgotPassword"
	OpResetPassword  = "resetPassword"
	OpRefresh        = "refresh"
	OpLogout         = "logout"
	OpGoogleToken    = "googleToken"
	OpAppleToken     = "appleToken"
)

// Call records one invocation. Arg holds the request or bearer credential.
type Call struct {
	Op  string
	Arg any
}

type reply struct {
	resp *authapi.AuthResponse
	err  error
}

type hold struct {
	entered chan struct{}
	release chan struct{}
}

// FakeClient is a scripted authapi.Client. Unscripted operations succeed with
// an empty response.
type FakeClient struct {
	replies map[string]reply
	holds   map[string]*hold
	calls   []Call
	lock    sync.Mutex
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		replies: make(map[string]reply),
		holds:   make(map[string]*hold),
	}
}

// On scripts the result of op.
func (f *FakeClient) On(op string, resp *authapi.AuthResponse, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.replies[op] = reply{resp: resp, err: err}
}

// Hold makes the next call to op block until release is called. entered is
// closed once the call is blocked.
func (f *FakeClient) Hold(op string) (entered <-chan struct{}, release func()) {
	f.lock.Lock()
	defer f.lock.Unlock()

	h := &hold{entered: make(chan struct{}), release: make(chan struct{})}
	f.holds[op] = h
	var once sync.Once
	return h.entered, func() { once.Do(func() { close(h.release) }) }
}

// Calls returns the recorded invocations of op, or of every operation when op is empty.
func (f *FakeClient) Calls(op string) []Call {
	f.lock.Lock()
	defer f.lock.Unlock()

	out := make([]Call, 0, len(f.calls))
	for _, c := range f.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeClient) Register(ctx context.Context, req authapi.RegisterRequest) (*authapi.AuthResponse, error) {
	return f.do(ctx, OpRegister, req)
}

func (f *FakeClient) Login(ctx context.Context, req authapi.LoginRequest) (*authapi.AuthResponse, error) {
	return f.do(ctx, OpLogin, req)
}

func (f *FakeClient) ForgotPassword(ctx context.Context, req authapi.ForgotPasswordRequest) (*authapi.AuthResponse, error) {
	return f.do(ctx, OpForgotPassword, req)
}

func (f *FakeClient) ResetPassword(ctx context.Context, req authapi.ResetPasswordRequest) (*authapi.AuthResponse, error) {
	return f.do(ctx, OpResetPassword, req)
}

func (f *FakeClient) Refresh(ctx context.Context, refreshToken string) (*authapi.AuthResponse, error) {
	return f.do(ctx, OpRefresh, refreshToken)
}

func (f *FakeClient) Logout(ctx context.Context, accessToken string) error {
	_, err := f.do(ctx, OpLogout, accessToken)
	return err
}

func (f *FakeClient) GoogleTokenLogin(ctx context.Context, accessToken string) (*authapi.AuthResponse, error) {
	return f.do(ctx, OpGoogleToken, accessToken)
}

func (f *FakeClient) AppleTokenLogin(ctx context.Context, idToken, name string) (*authapi.AuthResponse, error) {
	return f.do(ctx, OpAppleToken, [2]string{idToken, name})
}

func (f *FakeClient) do(ctx context.Context, op string, arg any) (*authapi.AuthResponse, error) {
	f.lock.Lock()
	f.calls = append(f.calls, Call{Op: op, Arg: arg})
	h := f.holds[op]
	delete(f.holds, op)
	r := f.replies[op]
	f.lock.Unlock()

	if h != nil {
		close(h.entered)
		select {
		case <-h.release:
		case <-ctx.Done():
			return nil, &authapi.NetworkError{Op: op, Err: ctx.Err()}
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.resp == nil {
		return &authapi.AuthResponse{}, nil
	}
	resp := *r.resp
	return &resp, nil
}
