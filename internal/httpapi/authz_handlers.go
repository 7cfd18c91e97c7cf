package httpapi

import (
	"net/http"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/authz"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/obs"
)

// handleAuthorizeRoute lets the UI shell probe whether the caller may enter
// an admin page before navigating to it.
func (a *API) handleAuthorizeRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	identity, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "path is required")
		return
	}

	role := authz.ResolveRole(&identity)
	allowed := authz.AuthorizeRoute(path, role)
	resp := map[string]any{
		"allowed": allowed,
		"role":    string(role),
	}
	perm, registered := authz.RequiredPermission(path)
	if registered {
		resp["permission"] = string(perm)
	}
	if !allowed {
		if registered {
			obs.CountAuthzDenial(string(perm))
		}
		resp["redirect"] = authz.PathUnauthorized
	}
	writeJSON(w, http.StatusOK, resp)
}
