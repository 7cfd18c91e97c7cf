package authz

// HasPermission reports whether the role's permission set contains perm.
// An unknown or empty role never has any permission.
func HasPermission(role Role, perm Permission) bool {
	set, ok := rolePermissionSets[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// HasAny reports whether the role holds at least one of perms.
// An empty perms slice yields false.
func HasAny(role Role, perms []Permission) bool {
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether the role holds every permission in perms.
// An empty perms slice yields true; call sites use it as "no restriction".
func HasAll(role Role, perms []Permission) bool {
	for _, p := range perms {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}

// PermitsIdentity evaluates perm against the identity's resolved role plus
// its explicit per-user overrides.
func PermitsIdentity(id *Identity, perm Permission) bool {
	if id == nil {
		return false
	}
	if HasPermission(ResolveRole(id), perm) {
		return true
	}
	for _, o := range id.Overrides {
		if o == perm {
			return true
		}
	}
	return false
}
