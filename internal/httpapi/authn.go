package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/authz"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/obs"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/session"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/session/login",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.tokens == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		claims, err := a.tokens.Parse(token)
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) {
				respondError(w, http.StatusUnauthorized, "invalid token")
			} else {
				respondError(w, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		identity := authz.Identity{
			ID:       claims.Subject,
			Username: claims.Subject,
			Role:     claims.Role,
		}
		ctx := authz.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensurePermission resolves the caller's identity and checks perm against
// role plus overrides. Writes the error response itself and reports whether
// the handler may proceed.
func (a *API) ensurePermission(w http.ResponseWriter, r *http.Request, perm authz.Permission) bool {
	identity, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return false
	}
	if !authz.PermitsIdentity(&identity, perm) {
		obs.CountAuthzDenial(string(perm))
		respondError(w, http.StatusForbidden, "permission denied")
		return false
	}
	return true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
