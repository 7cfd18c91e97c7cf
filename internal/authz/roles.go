package authz

import (
	"fmt"
	"strings"
)

// Role is a named bundle of permissions. The set of roles is closed.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleSupport    Role = "support"
	RoleViewer     Role = "viewer"
)

// RolePermissions maps every role to its permission set. RoleSuperAdmin must
// cover the entire catalog; validate() enforces that when the package loads.
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: CatalogKeys(),
	RoleAdmin: {
		PermDashboardView,
		PermAdminUsersView,
		PermAdminUsersManage,
		PermRidersView,
		PermRidersManage,
		PermRoadiesView,
		PermRoadiesManage,
		PermRequestsView,
		PermRequestsManage,
		PermWalletView,
		PermWalletManage,
		PermContentManage,
		PermAuditView,
		PermTwoFactorManage,
	},
	RoleSupport: {
		PermDashboardView,
		PermRidersView,
		PermRoadiesView,
		PermRequestsView,
		PermRequestsManage,
		PermWalletView,
	},
	RoleViewer: {
		PermDashboardView,
		PermRidersView,
		PermRoadiesView,
		PermRequestsView,
		PermWalletView,
	},
}

var rolePermissionSets = buildRoleSets()

func buildRoleSets() map[Role]map[Permission]struct{} {
	sets := make(map[Role]map[Permission]struct{}, len(RolePermissions))
	for role, perms := range RolePermissions {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		sets[role] = set
	}
	return sets
}

func init() {
	if err := validate(); err != nil {
		panic(err)
	}
}

// validate checks catalog invariants. The catalog is compile-time data, so a
// violation is a programming error rather than a runtime condition.
func validate() error {
	catalog := make(map[Permission]struct{}, len(Catalog))
	for _, info := range Catalog {
		if info.Key == "" {
			return fmt.Errorf("authz: catalog entry with empty key")
		}
		if !strings.Contains(string(info.Key), ".") {
			return fmt.Errorf("authz: permission %q is not of the form resource.action", info.Key)
		}
		if info.Category == "" {
			return fmt.Errorf("authz: permission %q has no category", info.Key)
		}
		if _, dup := catalog[info.Key]; dup {
			return fmt.Errorf("authz: duplicate permission %q", info.Key)
		}
		catalog[info.Key] = struct{}{}
	}
	for role, perms := range RolePermissions {
		for _, p := range perms {
			if _, ok := catalog[p]; !ok {
				return fmt.Errorf("authz: role %q grants unknown permission %q", role, p)
			}
		}
	}
	if len(RolePermissions[RoleSuperAdmin]) != len(catalog) {
		return fmt.Errorf("authz: role %q must cover the full catalog", RoleSuperAdmin)
	}
	return nil
}

// Identity represents the authenticated actor as supplied by the session
// layer. Overrides are explicit per-user permission grants on top of the role.
type Identity struct {
	ID        string
	Username  string
	Role      string
	IsStaff   bool
	Overrides []Permission
}

// ResolveRole derives the effective role from an identity. It is total: any
// unrecognized or missing signal falls back to RoleViewer, the lowest
// privilege role. The resolution order is fixed: a known explicit role wins,
// then the staff flag implies RoleAdmin, then the default.
func ResolveRole(id *Identity) Role {
	if id == nil {
		return RoleViewer
	}
	switch Role(strings.ToLower(strings.TrimSpace(id.Role))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin
	case RoleAdmin:
		return RoleAdmin
	case RoleSupport:
		return RoleSupport
	case RoleViewer:
		return RoleViewer
	}
	if id.IsStaff {
		return RoleAdmin
	}
	return RoleViewer
}
