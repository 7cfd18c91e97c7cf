package authz

import "testing"

func TestCatalogValidates(t *testing.T) {
	if err := validate(); err != nil {
		t.Fatalf("catalog invalid: %v", err)
	}
}

func TestSuperAdminCoversCatalog(t *testing.T) {
	for _, info := range Catalog {
		if !HasPermission(RoleSuperAdmin, info.Key) {
			t.Fatalf("super_admin missing %q", info.Key)
		}
	}
}

func TestHasPermissionMatchesRoleTable(t *testing.T) {
	for role, perms := range RolePermissions {
		granted := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			granted[p] = struct{}{}
			if !HasPermission(role, p) {
				t.Fatalf("role %q should hold %q", role, p)
			}
		}
		for _, info := range Catalog {
			if _, ok := granted[info.Key]; ok {
				continue
			}
			if HasPermission(role, info.Key) {
				t.Fatalf("role %q should not hold %q", role, info.Key)
			}
		}
	}
}

func TestUnknownRoleHasNothing(t *testing.T) {
	if HasPermission(Role(""), PermDashboardView) {
		t.Fatal("empty role must not hold permissions")
	}
	if HasPermission(Role("ghost"), PermDashboardView) {
		t.Fatal("unknown role must not hold permissions")
	}
}

func TestVacuousTruth(t *testing.T) {
	for role := range RolePermissions {
		if !HasAll(role, nil) {
			t.Fatalf("HasAll(%q, []) must be true", role)
		}
		if HasAny(role, nil) {
			t.Fatalf("HasAny(%q, []) must be false", role)
		}
	}
	if !HasAll(Role("ghost"), nil) {
		t.Fatal("HasAll must be vacuously true even for unknown roles")
	}
}

func TestHasAnyHasAll(t *testing.T) {
	perms := []Permission{PermAdminUsersView, PermWalletManage}
	if !HasAny(RoleAdmin, perms) {
		t.Fatal("admin should match at least one")
	}
	if HasAny(RoleViewer, perms) {
		t.Fatal("viewer should match none")
	}
	if !HasAll(RoleSuperAdmin, perms) {
		t.Fatal("super_admin should match all")
	}
	if HasAll(RoleSupport, perms) {
		t.Fatal("support should not match all")
	}
}

func TestResolveRoleIsTotal(t *testing.T) {
	cases := []struct {
		name string
		id   *Identity
		want Role
	}{
		{name: "nil identity", id: nil, want: RoleViewer},
		{name: "empty identity", id: &Identity{}, want: RoleViewer},
		{name: "explicit role", id: &Identity{Role: "support"}, want: RoleSupport},
		{name: "explicit role mixed case", id: &Identity{Role: " Super_Admin "}, want: RoleSuperAdmin},
		{name: "unknown role falls through", id: &Identity{Role: "owner"}, want: RoleViewer},
		{name: "staff flag implies admin", id: &Identity{IsStaff: true}, want: RoleAdmin},
		{name: "explicit role beats staff flag", id: &Identity{Role: "viewer", IsStaff: true}, want: RoleViewer},
	}
	for _, tc := range cases {
		if got := ResolveRole(tc.id); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestPermitsIdentityOverrides(t *testing.T) {
	id := &Identity{ID: "u1", Role: "viewer", Overrides: []Permission{PermWalletManage}}
	if !PermitsIdentity(id, PermWalletManage) {
		t.Fatal("override should grant the permission")
	}
	if PermitsIdentity(id, PermAdminUsersView) {
		t.Fatal("viewer without override should be denied")
	}
	if PermitsIdentity(nil, PermDashboardView) {
		t.Fatal("nil identity should be denied")
	}
}

func TestAuthorizeRoute(t *testing.T) {
	if AuthorizeRoute("/admin/users", RoleViewer) {
		t.Fatal("viewer must be denied /admin/users")
	}
	if !AuthorizeRoute("/admin/users", RoleAdmin) {
		t.Fatal("admin must be allowed /admin/users")
	}
	if !AuthorizeRoute("/admin/users/42/edit", RoleAdmin) {
		t.Fatal("prefix match should cover nested pages")
	}
	if AuthorizeRoute("/admin/users/42/edit", RoleSupport) {
		t.Fatal("prefix match should deny nested pages too")
	}
}

func TestAuthorizeRouteMostSpecificPrefixWins(t *testing.T) {
	// /admin/security/2fa requires twofactor.manage; support holds
	// dashboard.view so the bare /admin prefix alone would have allowed it.
	if AuthorizeRoute("/admin/security/2fa", RoleSupport) {
		t.Fatal("expected the more specific prefix to apply")
	}
	if !AuthorizeRoute("/admin", RoleSupport) {
		t.Fatal("support should reach the dashboard")
	}
}

func TestAuthorizeRouteDefaults(t *testing.T) {
	if !AuthorizeRoute("/profile/settings", Role("")) {
		t.Fatal("unregistered paths are implicitly allowed")
	}
	if !AuthorizeRoute("/", Role("")) {
		t.Fatal("home is always allowed")
	}
	if !AuthorizeRoute("/unauthorized", Role("")) {
		t.Fatal("unauthorized landing is always allowed")
	}
	if AuthorizeRoute("/admin/audit", Role("")) {
		t.Fatal("registered paths deny when the role is missing")
	}
}

func TestRequiredPermission(t *testing.T) {
	perm, ok := RequiredPermission("/admin/wallets/7")
	if !ok || perm != PermWalletView {
		t.Fatalf("got %q ok=%v", perm, ok)
	}
	if _, ok := RequiredPermission("/totally/elsewhere"); ok {
		t.Fatal("unregistered path should not resolve")
	}
}
