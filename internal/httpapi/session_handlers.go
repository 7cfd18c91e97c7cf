package httpapi

import (
	"net/http"
	"strings"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/audit"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/authz"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/session"
)

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type loginResponse struct {
	Descriptor session.Descriptor `json:"descriptor"`
	Token      string             `json:"token,omitempty"`
	State      string             `json:"state"`
}

// handleLogin registers the session with the coordinator, broadcasts the
// login to sibling contexts and returns the token artifact. Authentication
// of the credentials themselves happens upstream; this endpoint receives an
// already-verified identity from the shell.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if a.coordinator == nil {
		respondError(w, http.StatusServiceUnavailable, "session coordinator unavailable")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	desc, err := a.coordinator.Login(req.UserID, req.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "session setup failed")
		return
	}

	resp := loginResponse{Descriptor: desc, State: a.coordinator.State().String()}
	if a.artifacts != nil {
		if token, ok := a.artifacts.Get(session.KeyAuthToken); ok {
			resp.Token = token
		}
	}
	a.audit(r, "LOGIN", "User:"+req.UserID, req.UserID, nil)
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if a.coordinator == nil {
		respondError(w, http.StatusServiceUnavailable, "session coordinator unavailable")
		return
	}
	identity, _ := authz.IdentityFromContext(r.Context())
	a.coordinator.Logout()
	a.audit(r, "LOGOUT", "User:"+identity.ID, identity.ID, nil)
	writeJSON(w, http.StatusOK, map[string]any{"state": a.coordinator.State().String()})
}

// handleSessionCheck reports whether the caller's context has been
// superseded by a newer login for the same user.
func (a *API) handleSessionCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if a.coordinator == nil {
		respondError(w, http.StatusServiceUnavailable, "session coordinator unavailable")
		return
	}
	identity, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	superseded := a.coordinator.CheckExistingSession(identity.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"superseded": superseded,
		"state":      a.coordinator.State().String(),
	})
}

// audit records a privileged action, never failing the request.
func (a *API) audit(r *http.Request, action, target, actor string, details *audit.Details) {
	if a.recorder == nil {
		return
	}
	if details == nil {
		details = &audit.Details{}
	}
	if details.UserAgent == "" {
		details.UserAgent = r.UserAgent()
	}
	if actor == "" {
		if identity, ok := authz.IdentityFromContext(r.Context()); ok {
			actor = identity.Username
		}
	}
	a.recorder.Append(r.Context(), action, target, actor, details)
}
