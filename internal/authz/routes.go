package authz

import "strings"

const (
	// PathHome and PathUnauthorized are always allowed so that a denial can
	// redirect without creating a loop.
	PathHome         = "/"
	PathUnauthorized = "/unauthorized"
)

// routePermissions maps registered page prefixes to the permission required
// to enter them. Paths outside this table are implicitly allowed: default
// allow for unlisted routes is a deliberate choice, gating is opt-in.
var routePermissions = map[string]Permission{
	"/admin":              PermDashboardView,
	"/admin/users":        PermAdminUsersView,
	"/admin/riders":       PermRidersView,
	"/admin/roadies":      PermRoadiesView,
	"/admin/requests":     PermRequestsView,
	"/admin/wallets":      PermWalletView,
	"/admin/content":      PermContentManage,
	"/admin/settings":     PermSettingsManage,
	"/admin/audit":        PermAuditView,
	"/admin/security/2fa": PermTwoFactorManage,
}

// AuthorizeRoute decides whether role may enter path. The most specific
// registered prefix wins. It never fails: a missing role simply cannot
// satisfy a registered prefix and is denied there, while unregistered
// paths stay allowed.
func AuthorizeRoute(path string, role Role) bool {
	path = normalizePath(path)
	if path == PathHome || path == PathUnauthorized {
		return true
	}
	perm, registered := requiredPermission(path)
	if !registered {
		return true
	}
	return HasPermission(role, perm)
}

// RequiredPermission exposes the route table lookup for the UI shell.
func RequiredPermission(path string) (Permission, bool) {
	return requiredPermission(normalizePath(path))
}

func requiredPermission(path string) (Permission, bool) {
	var (
		best    string
		perm    Permission
		matched bool
	)
	for prefix, p := range routePermissions {
		if path != prefix && !strings.HasPrefix(path, prefix+"/") {
			continue
		}
		if len(prefix) > len(best) {
			best = prefix
			perm = p
			matched = true
		}
	}
	return perm, matched
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PathHome
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
