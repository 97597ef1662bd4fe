package rbac_test

import (
	"testing"

	"github.com/openlingo/openlingo/internal/rbac"
)

func TestDefaultPolicy(t *testing.T) {
	c := rbac.NewChecker(nil)

	cases := []struct {
		role string
		perm string
		want bool
	}{
		{"user", "topic:view", true},
		{"user", "lesson:submit", true},
		{"user", "admin:manage", false},
		{"user", "user:change_password", true},
		{"admin", "admin:manage", true},
		{"admin", "lesson:view", true},
		{"", "topic:view", false},
		{"ghost", "topic:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestWildcardPrefix(t *testing.T) {
	c := rbac.NewChecker(map[string][]string{
		"editor": {"lesson:*"},
	})
	if !c.Has("editor", "lesson:view") || !c.Has("editor", "lesson:submit") {
		t.Error("prefix wildcard did not match")
	}
	if c.Has("editor", "topic:view") {
		t.Error("prefix wildcard leaked outside its prefix")
	}
}

func TestAny(t *testing.T) {
	c := rbac.NewChecker(nil)
	if !c.Any("user", "admin:manage", "lesson:view") {
		t.Error("Any missed a held permission")
	}
	if c.Any("user", "admin:manage", "users:delete") {
		t.Error("Any granted unheld permissions")
	}
}
