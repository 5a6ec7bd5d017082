package session

import (
	"sync"

	"github.com/jrsteele09/go-auth-client/authapi"
)

// State is an immutable snapshot of the session.
type State struct {
	Status       Status
	UserID       string
	AccessToken  string
	RefreshToken string
	User         *authapi.User
	Loading      bool
	Error        *AuthError
}

// IsAuthenticated is the flag consumed by route gating.
func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.AccessToken != ""
}

// Container holds the session state. Only the Manager mutates it; everyone
// else reads snapshots or subscribes to changes.
type Container struct {
	state    State
	inflight int
	subs     []subscriber
	nextSub  int
	lock     sync.RWMutex

	// notifyLock orders updates with their notifications so subscribers
	// never observe snapshots out of order.
	notifyLock sync.Mutex
}

type subscriber struct {
	id int
	fn func(State)
}

func NewContainer() *Container {
	c := &Container{}
	c.state.Status = StatusUnknown
	c.state.Loading = true
	return c
}

// Snapshot returns the current state.
func (c *Container) Snapshot() State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state
}

// Subscribe registers fn to receive every new snapshot. Subscribers are called
// in registration order. fn runs on the mutating goroutine and must not call
// back into the Manager.
func (c *Container) Subscribe(fn func(State)) (unsubscribe func()) {
	c.lock.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.lock.Lock()
			for i, sub := range c.subs {
				if sub.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					break
				}
			}
			c.lock.Unlock()
		})
	}
}

func (c *Container) update(fn func(*State)) {
	c.notifyLock.Lock()
	defer c.notifyLock.Unlock()

	c.lock.Lock()
	fn(&c.state)
	c.state.Loading = c.inflight > 0 || !c.state.Status.Settled()
	snap := c.state
	subs := make([]func(State), 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub.fn)
	}
	c.lock.Unlock()

	for _, s := range subs {
		s(snap)
	}
}

func (c *Container) beginOp() {
	c.update(func(*State) { c.inflight++ })
}

func (c *Container) endOp() {
	c.update(func(*State) {
		if c.inflight > 0 {
			c.inflight--
		}
	})
}

func (c *Container) setError(err *AuthError) {
	c.update(func(s *State) { s.Error = err })
}

func (c *Container) clearError() {
	c.update(func(s *State) { s.Error = nil })
}

func (c *Container) setStatus(status Status) {
	c.update(func(s *State) { s.Status = status })
}

// reset returns the container to its empty unauthenticated form.
func (c *Container) reset() {
	c.update(func(s *State) {
		*s = State{Status: StatusUnauthenticated}
	})
}

func (c *Container) authenticate(userID, accessToken, refreshToken string, user *authapi.User) {
	c.update(func(s *State) {
		s.Status = StatusAuthenticated
		s.UserID = userID
		s.AccessToken = accessToken
		s.RefreshToken = refreshToken
		s.User = user
		s.Error = nil
	})
}
