package learner_test

import (
	"testing"

	"github.com/openlingo/openlingo/pkg/client/session"
	"github.com/openlingo/openlingo/pkg/learner"
)

type fakeSession struct {
	authenticated bool
	expired       bool
	role          string
}

func (f fakeSession) IsAuthenticated() bool { return f.authenticated }
func (f fakeSession) IsTokenExpired() bool  { return f.expired }
func (f fakeSession) Role() string          { return f.role }

func TestCheckAccessOrdering(t *testing.T) {
	cases := []struct {
		name     string
		sess     fakeSession
		roles    []string
		allow    bool
		redirect string
	}{
		{
			name:     "no session goes to login",
			sess:     fakeSession{},
			roles:    []string{session.RoleUser},
			redirect: "/user/login",
		},
		{
			name:     "expired token beats role mismatch",
			sess:     fakeSession{authenticated: true, expired: true, role: session.RoleUser},
			roles:    []string{session.RoleAdmin},
			redirect: "/user/login?expired=true",
		},
		{
			name:     "expired admin goes to admin login",
			sess:     fakeSession{authenticated: true, expired: true, role: session.RoleAdmin},
			roles:    []string{session.RoleAdmin},
			redirect: "/admin/login?expired=true",
		},
		{
			name:     "wrong role goes home, not to login",
			sess:     fakeSession{authenticated: true, role: session.RoleUser},
			roles:    []string{session.RoleAdmin},
			redirect: "/user/dashboard",
		},
		{
			name:  "matching role allowed",
			sess:  fakeSession{authenticated: true, role: session.RoleAdmin},
			roles: []string{session.RoleAdmin},
			allow: true,
		},
		{
			name:  "no role restriction allows any live session",
			sess:  fakeSession{authenticated: true, role: session.RoleUser},
			allow: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := learner.CheckAccess(tc.sess, tc.roles...)
			if d.Allow != tc.allow {
				t.Fatalf("Allow = %v, want %v", d.Allow, tc.allow)
			}
			if d.Redirect != tc.redirect {
				t.Errorf("Redirect = %q, want %q", d.Redirect, tc.redirect)
			}
		})
	}
}
