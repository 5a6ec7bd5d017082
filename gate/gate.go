// Package gate maps session state to navigation decisions.
package gate

import (
	"strings"
	"sync"

	"github.com/jrsteele09/go-auth-client/session"
)

// Default route paths of the app shell.
const (
	RouteHome       = "/(main)/home"
	RouteHomePrefix = "/(main)/home"
	RouteWelcome    = "/welcome"
)

// Routes names the destinations the gate redirects to.
type Routes struct {
	Home       string // authenticated landing route
	HomePrefix string // routes under this prefix are left alone while authenticated
	Welcome    string // unauthenticated landing route
}

// DefaultRoutes returns the app shell routes.
func DefaultRoutes() Routes {
	return Routes{Home: RouteHome, HomePrefix: RouteHomePrefix, Welcome: RouteWelcome}
}

// Decision is the gate's verdict for one snapshot.
type Decision struct {
	// Ready is false until the session has settled; nothing should render.
	Ready bool
	// Redirect is the route to replace the current one with, or empty to stay.
	Redirect string
}

// Decide is pure: it has no side effects and depends only on its arguments.
func Decide(state session.State, current string, routes Routes) Decision {
	if !state.Status.Settled() {
		return Decision{}
	}

	if state.IsAuthenticated() {
		prefix := routes.HomePrefix
		if prefix == "" {
			prefix = routes.Home
		}
		if strings.HasPrefix(current, prefix) {
			return Decision{Ready: true}
		}
		return Decision{Ready: true, Redirect: routes.Home}
	}

	if current == routes.Welcome {
		return Decision{Ready: true}
	}
	return Decision{Ready: true, Redirect: routes.Welcome}
}

// Navigator is the presentation layer's router.
type Navigator interface {
	Current() string
	Replace(route string)
}

// Gate drives a Navigator from session state changes.
type Gate struct {
	nav    Navigator
	routes Routes

	lock  sync.Mutex
	ready bool
}

func New(nav Navigator, routes Routes) *Gate {
	return &Gate{nav: nav, routes: routes}
}

// Ready reports whether the last evaluated snapshot had settled.
func (g *Gate) Ready() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.ready
}

// Evaluate applies the decision for state to the navigator.
func (g *Gate) Evaluate(state session.State) Decision {
	g.lock.Lock()
	defer g.lock.Unlock()

	d := Decide(state, g.nav.Current(), g.routes)
	g.ready = d.Ready
	if d.Redirect != "" {
		g.nav.Replace(d.Redirect)
	}
	return d
}

// Watch evaluates the current snapshot and every later one until stop is called.
func (g *Gate) Watch(c *session.Container) (stop func()) {
	stop = c.Subscribe(func(s session.State) {
		g.Evaluate(s)
	})
	g.Evaluate(c.Snapshot())
	return stop
}
