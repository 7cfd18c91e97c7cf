package httpapi

import (
	"net/http"
	"strconv"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/audit"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/authz"
)

// handleAudit serves the audit trail: GET lists newest first, DELETE purges.
func (a *API) handleAudit(w http.ResponseWriter, r *http.Request) {
	if a.recorder == nil {
		respondError(w, http.StatusServiceUnavailable, "audit recorder unavailable")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.handleAuditList(w, r)
	case http.MethodDelete:
		a.handleAuditPurge(w, r)
	default:
		methodNotAllowed(w, "GET, DELETE")
	}
}

func (a *API) handleAuditList(w http.ResponseWriter, r *http.Request) {
	if !a.ensurePermission(w, r, authz.PermAuditView) {
		return
	}
	entries, err := a.recorder.List(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "audit log unavailable")
		return
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n < len(entries) {
			entries = entries[:n]
		}
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *API) handleAuditPurge(w http.ResponseWriter, r *http.Request) {
	if !a.ensurePermission(w, r, authz.PermAuditManage) {
		return
	}
	if err := a.recorder.Purge(r.Context()); err != nil {
		respondError(w, http.StatusBadGateway, "purge failed")
		return
	}
	// Recorded after the purge so the log shows who emptied it.
	a.audit(r, "PURGE_AUDIT_LOG", "AuditLog", "", &audit.Details{Module: "audit"})
	writeJSON(w, http.StatusOK, map[string]any{"purged": true})
}
