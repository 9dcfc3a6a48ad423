package security

import (
	"crypto/tls"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("consultorio-2026")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "consultorio-2026" {
		t.Fatal("hash must not equal the password")
	}
	if !CheckPassword("consultorio-2026", hash) {
		t.Error("CheckPassword() rejected the correct password")
	}
	if CheckPassword("wrong", hash) {
		t.Error("CheckPassword() accepted a wrong password")
	}
	if CheckPassword("consultorio-2026", "not-a-bcrypt-hash") {
		t.Error("CheckPassword() accepted a malformed hash")
	}
}

func TestCSRFTokenBinding(t *testing.T) {
	gen := NewCSRFGenerator("secret")
	id := NewWorkflowID()

	token, err := gen.GenerateToken(id)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		workflowID string
		token      string
		want       bool
	}{
		{name: "matching workflow", workflowID: id, token: token, want: true},
		{name: "other workflow", workflowID: NewWorkflowID(), token: token, want: false},
		{name: "empty token", workflowID: id, token: "", want: false},
		{name: "empty workflow", workflowID: "", token: token, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gen.ValidateToken(tt.workflowID, tt.token); got != tt.want {
				t.Errorf("ValidateToken() = %v, want %v", got, tt.want)
			}
		})
	}

	if other, _ := NewCSRFGenerator("other-secret").GenerateToken(id); other == token {
		t.Error("tokens from different secrets must differ")
	}
	if _, err := gen.GenerateToken(""); err == nil {
		t.Error("expected error for empty workflow id")
	}
}

func TestRandomSecret(t *testing.T) {
	a, err := RandomSecret()
	if err != nil {
		t.Fatalf("RandomSecret() error = %v", err)
	}
	b, err := RandomSecret()
	if err != nil {
		t.Fatalf("RandomSecret() error = %v", err)
	}
	if len(a) != 64 {
		t.Errorf("len(secret) = %d, want 64", len(a))
	}
	if a == b {
		t.Error("two calls returned the same secret")
	}
}

func TestRateLimiterFixedWindow(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	now := start
	rl := NewRateLimiter(3, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("fourth request in the window should be blocked")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other clients have their own window")
	}

	now = start.Add(time.Minute)
	if !rl.Allow("10.0.0.1") {
		t.Error("a new window should allow requests again")
	}

	rl.Reset("10.0.0.1")
	now = start.Add(2 * time.Minute)
	if removed := rl.Cleanup(); removed != 1 {
		t.Errorf("Cleanup() removed %d windows, want 1", removed)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, want: "203.0.113.9"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.4"}, want: "198.51.100.4"},
		{name: "remote addr", remote: "192.0.2.7:51234", want: "192.0.2.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/login", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCookies(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	c := CreateSessionCookie(req, "hd_workflow", "abc", time.Now().Add(time.Hour))
	if !c.HttpOnly || c.Secure {
		t.Errorf("plain http cookie flags wrong: %+v", c)
	}

	req.TLS = &tls.ConnectionState{}
	if !CreateSessionCookie(req, "hd_workflow", "abc", time.Now()).Secure {
		t.Error("TLS request should produce a Secure cookie")
	}
	if del := CreateDeleteCookie(req, "hd_workflow"); del.MaxAge != -1 {
		t.Errorf("delete cookie MaxAge = %d", del.MaxAge)
	}

	if !IsWorkflowID(NewWorkflowID()) || IsWorkflowID("not-a-uuid") {
		t.Error("IsWorkflowID() misclassified an id")
	}
}
