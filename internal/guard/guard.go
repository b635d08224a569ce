// Package guard decides whether a navigation target is reachable in the
// current session state.
package guard

import (
	"context"

	"github.com/onnwee/tastemap/internal/session"
)

// Route describes the access rules of one navigation target.
type Route struct {
	Path string
	// RequiresAuth routes bounce anonymous visitors to sign-in.
	RequiresAuth bool
	// GuestOnly routes bounce signed-in users to the landing page.
	GuestOnly bool
}

// Well-known targets used by redirect decisions.
const (
	SignInPath  = "/signin"
	LandingPath = "/recipes"
)

// Decision is the outcome of resolving a route.
type Decision struct {
	Allowed bool
	// RedirectTo is set when Allowed is false.
	RedirectTo string
	// ReturnTo carries the original destination through a sign-in redirect.
	ReturnTo string
}

// Guard resolves routes against the session store.
type Guard struct {
	session *session.Store
}

func New(sess *session.Store) *Guard {
	return &Guard{session: sess}
}

// Resolve runs the one-time session check, then applies the route rules.
func (g *Guard) Resolve(ctx context.Context, route Route) Decision {
	g.session.EnsureSessionChecked(ctx)

	authed := g.session.IsAuthenticated()
	switch {
	case route.RequiresAuth && !authed:
		return Decision{RedirectTo: SignInPath, ReturnTo: route.Path}
	case route.GuestOnly && authed:
		return Decision{RedirectTo: LandingPath}
	default:
		return Decision{Allowed: true}
	}
}
