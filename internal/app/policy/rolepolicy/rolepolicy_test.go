package rolepolicy_test

import (
	"testing"

	"github.com/zm10123/taskhive/internal/app/policy/rolepolicy"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want rolepolicy.Role
	}{
		{"admin", rolepolicy.RoleAdmin},
		{"Admin", rolepolicy.RoleAdmin},
		{" editor ", rolepolicy.RoleEditor},
		{"viewer", rolepolicy.RoleViewer},
		{"", rolepolicy.RoleNone},
		{"owner", rolepolicy.RoleNone},
		{"leader", rolepolicy.RoleNone},
	}
	for _, c := range cases {
		if got := rolepolicy.Parse(c.in); got != c.want {
			t.Errorf("Parse(%q): got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanEditContent(t *testing.T) {
	if !rolepolicy.CanEditContent(rolepolicy.RoleAdmin) {
		t.Error("admin should be able to edit content")
	}
	if !rolepolicy.CanEditContent(rolepolicy.RoleEditor) {
		t.Error("editor should be able to edit content")
	}
	if rolepolicy.CanEditContent(rolepolicy.RoleViewer) {
		t.Error("viewer must not be able to edit content")
	}
	if rolepolicy.CanEditContent(rolepolicy.RoleNone) {
		t.Error("absent membership must not be able to edit content")
	}
}

func TestCanManageMembers(t *testing.T) {
	if !rolepolicy.CanManageMembers(rolepolicy.RoleAdmin) {
		t.Error("admin should be able to manage members")
	}
	for _, r := range []rolepolicy.Role{rolepolicy.RoleEditor, rolepolicy.RoleViewer, rolepolicy.RoleNone} {
		if rolepolicy.CanManageMembers(r) {
			t.Errorf("%q must not be able to manage members", r)
		}
	}
}

func TestCanView(t *testing.T) {
	for _, r := range []rolepolicy.Role{rolepolicy.RoleAdmin, rolepolicy.RoleEditor, rolepolicy.RoleViewer} {
		if !rolepolicy.CanView(r) {
			t.Errorf("%q should be able to view", r)
		}
	}
	if rolepolicy.CanView(rolepolicy.RoleNone) {
		t.Error("absent membership must not be able to view")
	}
}
