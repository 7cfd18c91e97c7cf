package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/audit"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/session"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/store/memory"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/twofactor"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	tokens, err := session.NewTokenIssuer([]byte("test-secret"), "vehix-admin", time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}

	artifacts := memory.NewArtifactStore()
	bus := session.NewMemoryBus(session.DefaultChannelName)
	coordinator := session.New(artifacts, bus, session.WithTokenIssuer(tokens))

	twoFactorSvc, err := twofactor.NewService(memory.NewTwoFactorStore())
	if err != nil {
		t.Fatalf("twofactor service: %v", err)
	}

	recorder, err := audit.NewRecorder(memory.NewAuditStore())
	if err != nil {
		t.Fatalf("audit recorder: %v", err)
	}

	api := New(Deps{
		Tokens:      tokens,
		Coordinator: coordinator,
		Artifacts:   artifacts,
		TwoFactor:   twoFactorSvc,
		Recorder:    recorder,
	}, "test")
	api.rateBurst = 100
	api.ratePerSec = 100

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

func (c *apiClient) delete(path string, headers map[string]string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("delete request: %v", err)
	}
	return resp
}

// login hits the public login endpoint and returns the bearer header map.
func (c *apiClient) login(userID, role string) map[string]string {
	c.t.Helper()
	resp := c.post("/v1/session/login", map[string]any{
		"user_id": userID,
		"role":    role,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}
	payload := decode[loginResponse](c.t, resp)
	if payload.Token == "" {
		c.t.Fatalf("no token issued on login")
	}
	return map[string]string{"Authorization": "Bearer " + payload.Token}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthAndInfo(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["service"] != "vehix-admin-api" {
		t.Fatalf("unexpected service name %v", body["service"])
	}

	resp = c.get("/v1/info", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("info status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginLogoutFlow(t *testing.T) {
	c := newTestAPI(t)

	headers := c.login("alice", "admin")

	resp := c.get("/v1/session/check", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("session check status = %d", resp.StatusCode)
	}
	check := decode[map[string]any](t, resp)
	if check["superseded"] != false {
		t.Fatalf("fresh session reported superseded")
	}
	if check["state"] != "active" {
		t.Fatalf("state = %v, want active", check["state"])
	}

	resp = c.post("/v1/session/logout", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	out := decode[map[string]any](t, resp)
	if out["state"] != "logged_out" {
		t.Fatalf("state after logout = %v", out["state"])
	}
}

func TestAuthRequired(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/v1/audit", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.get("/v1/audit", nil, map[string]string{"Authorization": "Bearer garbage"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAuditPermissions(t *testing.T) {
	c := newTestAPI(t)

	viewer := c.login("vera", "viewer")
	resp := c.get("/v1/audit", nil, viewer)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("viewer audit list status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	admin := c.login("alice", "admin")
	resp = c.get("/v1/audit", nil, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin audit list status = %d, want 200", resp.StatusCode)
	}
	listing := decode[struct {
		Entries []audit.Entry `json:"entries"`
	}](t, resp)
	// Both logins above were recorded.
	if len(listing.Entries) < 2 {
		t.Fatalf("expected login entries in audit trail, got %d", len(listing.Entries))
	}
	if listing.Entries[0].Action != "LOGIN" {
		t.Fatalf("newest action = %q, want LOGIN", listing.Entries[0].Action)
	}

	// Purge requires audit.manage, which admin does not hold.
	resp = c.delete("/v1/audit", admin)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("admin purge status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	root := c.login("root", "super_admin")
	resp = c.delete("/v1/audit", root)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("super_admin purge status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRouteProbe(t *testing.T) {
	c := newTestAPI(t)

	viewer := c.login("vera", "viewer")
	resp := c.get("/v1/authz/route", url.Values{"path": {"/admin/users"}}, viewer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("route probe status = %d", resp.StatusCode)
	}
	probe := decode[map[string]any](t, resp)
	if probe["allowed"] != false {
		t.Fatalf("viewer allowed on /admin/users")
	}
	if probe["redirect"] != "/unauthorized" {
		t.Fatalf("redirect = %v, want /unauthorized", probe["redirect"])
	}

	admin := c.login("alice", "admin")
	resp = c.get("/v1/authz/route", url.Values{"path": {"/admin/users"}}, admin)
	probe = decode[map[string]any](t, resp)
	if probe["allowed"] != true {
		t.Fatalf("admin denied on /admin/users")
	}
	if probe["permission"] != "admin_users.view" {
		t.Fatalf("permission = %v", probe["permission"])
	}
}

func TestTwoFactorEnrollmentFlow(t *testing.T) {
	c := newTestAPI(t)
	headers := c.login("alice", "admin")

	resp := c.post("/v1/2fa/initiate", map[string]any{}, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initiate status = %d", resp.StatusCode)
	}
	enrollment := decode[twofactor.Enrollment](t, resp)
	if enrollment.Secret == "" || enrollment.ProvisioningURL == "" {
		t.Fatalf("incomplete enrollment payload: %+v", enrollment)
	}

	resp = c.get("/v1/2fa/status", nil, headers)
	status := decode[twofactor.StatusInfo](t, resp)
	if status.Enabled {
		t.Fatalf("enabled before confirmation")
	}

	resp = c.post("/v1/2fa/confirm", map[string]any{"code": "000000"}, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm status = %d", resp.StatusCode)
	}
	outcome := decode[map[string]any](t, resp)
	if outcome["valid"] != false {
		t.Fatalf("bogus code accepted")
	}

	code, err := totp.GenerateCodeCustom(enrollment.Secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	resp = c.post("/v1/2fa/confirm", map[string]any{"code": code}, headers)
	outcome = decode[map[string]any](t, resp)
	if outcome["valid"] != true {
		t.Fatalf("valid code rejected")
	}

	resp = c.get("/v1/2fa/status", nil, headers)
	status = decode[twofactor.StatusInfo](t, resp)
	if !status.Enabled {
		t.Fatalf("not enabled after confirmation")
	}

	resp = c.post("/v1/2fa/recovery", map[string]any{}, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recovery status = %d", resp.StatusCode)
	}
	recovery := decode[struct {
		Codes []string `json:"codes"`
	}](t, resp)
	if len(recovery.Codes) != twofactor.RecoveryCodeCount {
		t.Fatalf("got %d recovery codes, want %d", len(recovery.Codes), twofactor.RecoveryCodeCount)
	}
}

func TestTwoFactorManageOtherAccount(t *testing.T) {
	c := newTestAPI(t)

	support := c.login("sam", "support")
	resp := c.post("/v1/2fa/initiate", map[string]any{"username": "bob"}, support)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("support managing other account status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	admin := c.login("alice", "admin")
	resp = c.post("/v1/2fa/initiate", map[string]any{"username": "bob"}, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin managing other account status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestVerifyBeforeEnrollment(t *testing.T) {
	c := newTestAPI(t)
	headers := c.login("alice", "admin")

	resp := c.post("/v1/2fa/verify", map[string]any{"code": "123456"}, headers)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("verify before enrollment status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()
}
