package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/audit"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/authz"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/twofactor"
)

type twoFactorRequest struct {
	Username string `json:"username"`
	Code     string `json:"code,omitempty"`
}

// resolveTwoFactorTarget decides which account the caller may operate on.
// Everyone manages their own enrollment; acting on another account requires
// the twofactor.manage permission.
func (a *API) resolveTwoFactorTarget(w http.ResponseWriter, r *http.Request, requested string) (string, bool) {
	identity, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	requested = strings.TrimSpace(requested)
	if requested == "" || strings.EqualFold(requested, identity.Username) {
		return identity.Username, true
	}
	if !authz.PermitsIdentity(&identity, authz.PermTwoFactorManage) {
		respondError(w, http.StatusForbidden, "permission denied")
		return "", false
	}
	return requested, true
}

func (a *API) handleTwoFactorInitiate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if a.twoFactor == nil {
		respondError(w, http.StatusServiceUnavailable, "twofactor service unavailable")
		return
	}
	var req twoFactorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	username, ok := a.resolveTwoFactorTarget(w, r, req.Username)
	if !ok {
		return
	}
	enrollment, err := a.twoFactor.InitiateEnrollment(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusBadGateway, "enrollment failed")
		return
	}
	a.audit(r, "RESET_TWOFACTOR", "User:"+username, "", &audit.Details{Module: "twofactor"})
	writeJSON(w, http.StatusOK, enrollment)
}

func (a *API) handleTwoFactorConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if a.twoFactor == nil {
		respondError(w, http.StatusServiceUnavailable, "twofactor service unavailable")
		return
	}
	var req twoFactorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	username, ok := a.resolveTwoFactorTarget(w, r, req.Username)
	if !ok {
		return
	}
	err := a.twoFactor.ConfirmEnrollment(r.Context(), username, req.Code)
	switch {
	case errors.Is(err, twofactor.ErrNotEnrolled):
		respondError(w, http.StatusConflict, "no pending enrollment")
	case errors.Is(err, twofactor.ErrInvalidCode):
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "message": "invalid code, try again"})
	case err != nil:
		respondError(w, http.StatusBadGateway, "confirmation failed")
	default:
		a.audit(r, "ENABLE_TWOFACTOR", "User:"+username, "", &audit.Details{Module: "twofactor"})
		writeJSON(w, http.StatusOK, map[string]any{"valid": true})
	}
}

func (a *API) handleTwoFactorVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if a.twoFactor == nil {
		respondError(w, http.StatusServiceUnavailable, "twofactor service unavailable")
		return
	}
	var req twoFactorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	username, ok := a.resolveTwoFactorTarget(w, r, req.Username)
	if !ok {
		return
	}
	err := a.twoFactor.VerifyCode(r.Context(), username, req.Code)
	// A dash marks a recovery code; TOTP codes are plain digits.
	if errors.Is(err, twofactor.ErrInvalidCode) && strings.Contains(req.Code, "-") {
		err = a.twoFactor.UseRecoveryCode(r.Context(), username, req.Code)
	}
	switch {
	case errors.Is(err, twofactor.ErrNotEnrolled):
		respondError(w, http.StatusConflict, "not enrolled")
	case errors.Is(err, twofactor.ErrInvalidCode), errors.Is(err, twofactor.ErrNoRecoveryCode):
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "message": "invalid code, try again"})
	case err != nil:
		respondError(w, http.StatusBadGateway, "verification failed")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"valid": true})
	}
}

func (a *API) handleTwoFactorStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if a.twoFactor == nil {
		respondError(w, http.StatusServiceUnavailable, "twofactor service unavailable")
		return
	}
	username, ok := a.resolveTwoFactorTarget(w, r, r.URL.Query().Get("username"))
	if !ok {
		return
	}
	info, err := a.twoFactor.Status(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusBadGateway, "status check failed")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *API) handleTwoFactorRecovery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if a.twoFactor == nil {
		respondError(w, http.StatusServiceUnavailable, "twofactor service unavailable")
		return
	}
	var req twoFactorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	username, ok := a.resolveTwoFactorTarget(w, r, req.Username)
	if !ok {
		return
	}
	codes, err := a.twoFactor.GenerateRecoveryCodes(r.Context(), username)
	switch {
	case errors.Is(err, twofactor.ErrNotEnrolled):
		respondError(w, http.StatusConflict, "not enrolled")
	case err != nil:
		respondError(w, http.StatusBadGateway, "recovery code generation failed")
	default:
		a.audit(r, "RESET_RECOVERY_CODES", "User:"+username, "", &audit.Details{Module: "twofactor"})
		writeJSON(w, http.StatusOK, map[string]any{"codes": codes})
	}
}
