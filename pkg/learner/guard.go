// Package learner drives the lesson progression for one track: it loads the
// lesson tree, keeps the viewer position, gates theory completion and handles
// practice submission against the grading API.
package learner

import "github.com/openlingo/openlingo/pkg/client/session"

// Session is the slice of the session store the route guard reads.
type Session interface {
	IsAuthenticated() bool
	IsTokenExpired() bool
	Role() string
}

// Decision is a guard verdict: either Allow, or a Redirect route.
type Decision struct {
	Allow    bool
	Redirect string
}

// CheckAccess guards one protected route. Checks run in a fixed order and
// the first failing check decides the redirect:
//
//  1. no session at all goes to the login page
//  2. an expired token goes to the login page, marked expired
//  3. a live session with the wrong role goes to its own home page
func CheckAccess(s Session, allowedRoles ...string) Decision {
	if !s.IsAuthenticated() {
		return Decision{Redirect: session.LoginRoute("")}
	}
	if s.IsTokenExpired() {
		return Decision{Redirect: session.LoginRoute(s.Role()) + "?expired=true"}
	}
	role := s.Role()
	for _, r := range allowedRoles {
		if r == role {
			return Decision{Allow: true}
		}
	}
	if len(allowedRoles) == 0 {
		return Decision{Allow: true}
	}
	return Decision{Redirect: session.HomeRoute(role)}
}
