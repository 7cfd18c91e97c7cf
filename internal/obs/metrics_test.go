package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                        "/",
		"/metrics":                "/metrics",
		"/v1/audit":               "/v1/audit",
		"/v1/audit?limit=10":      "/v1/audit",
		"/admin/users/42/edit":    "/admin/users/*",
		"/admin/wallets/7":        "/admin/wallets/*",
		"/admin/audit":            "/admin/audit",
		"/v1/2fa/status":          "/v1/2fa/status",
		"/v1/authz/route?path=/a": "/v1/authz/route",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
