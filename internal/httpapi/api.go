// Package httpapi exposes the authorization, session, two-factor and audit
// components over a JSON HTTP surface for the admin UI shell.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/audit"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/obs"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/session"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/twofactor"
)

const serviceName = "vehix-admin-api"

// ReadyProbe checks backing-store availability for /readyz.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the core components.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	tokens      *session.TokenIssuer
	coordinator *session.Coordinator
	artifacts   session.ArtifactStore
	twoFactor   *twofactor.Service
	recorder    *audit.Recorder

	rateBurst  int
	ratePerSec int
}

// Deps bundles the wired components.
type Deps struct {
	ReadyProbe  ReadyProbe
	Tokens      *session.TokenIssuer
	Coordinator *session.Coordinator
	Artifacts   session.ArtifactStore
	TwoFactor   *twofactor.Service
	Recorder    *audit.Recorder
}

// New assembles the route table.
func New(deps Deps, version string) *API {
	a := &API{
		mux:         http.NewServeMux(),
		readyProbe:  deps.ReadyProbe,
		version:     version,
		tokens:      deps.Tokens,
		coordinator: deps.Coordinator,
		artifacts:   deps.Artifacts,
		twoFactor:   deps.TwoFactor,
		recorder:    deps.Recorder,
		rateBurst:   20,
		ratePerSec:  10,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/session/login", a.handleLogin)
	a.mux.HandleFunc("/v1/session/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/session/check", a.handleSessionCheck)

	a.mux.HandleFunc("/v1/2fa/initiate", a.handleTwoFactorInitiate)
	a.mux.HandleFunc("/v1/2fa/confirm", a.handleTwoFactorConfirm)
	a.mux.HandleFunc("/v1/2fa/verify", a.handleTwoFactorVerify)
	a.mux.HandleFunc("/v1/2fa/status", a.handleTwoFactorStatus)
	a.mux.HandleFunc("/v1/2fa/recovery", a.handleTwoFactorRecovery)

	a.mux.HandleFunc("/v1/audit", a.handleAudit)

	a.mux.HandleFunc("/v1/authz/route", a.handleAuthorizeRoute)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = obs.Instrument(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = SecurityHeaders(h)
	h = Logging(h)
	return h
}

// --- service handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	respondError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, http.ErrHandlerTimeout) {
			return err
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
