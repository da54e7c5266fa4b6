package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"streetplan/internal/config"
	"streetplan/internal/types"
)

func TestTokenAuthenticator_Plaintext(t *testing.T) {
	a := NewTokenAuthenticator("letmein")

	if !a.Configured() {
		t.Fatal("expected Configured() to be true")
	}
	if !a.Verify("letmein") {
		t.Error("matching token rejected")
	}
	for _, bad := range []string{"", "letmein ", "LETMEIN", "let"} {
		if a.Verify(bad) {
			t.Errorf("Verify(%q) = true", bad)
		}
	}
}

func TestTokenAuthenticator_Bcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	a := NewTokenAuthenticator(types.SecretString(hash))

	if !a.Verify("letmein") {
		t.Error("token matching the bcrypt hash rejected")
	}
	if a.Verify(string(hash)) {
		t.Error("the hash itself must not authenticate")
	}
	if a.Verify("wrong") {
		t.Error("wrong token accepted")
	}
}

func TestTokenAuthenticator_Unconfigured(t *testing.T) {
	a := NewTokenAuthenticator("")
	if a.Configured() {
		t.Error("empty secret must not be Configured")
	}
	if a.Verify("") || a.Verify("anything") {
		t.Error("unconfigured authenticator must reject every token")
	}
}

// stubAuthenticator is a fixed AdminAuthenticator.
type stubAuthenticator struct {
	configured bool
	valid      string
}

func (s stubAuthenticator) Configured() bool         { return s.configured }
func (s stubAuthenticator) Verify(token string) bool { return s.configured && token == s.valid }

func TestAdminTokenMiddleware_MarksContext(t *testing.T) {
	srv, _ := NewServer(&config.Config{}, discardLogger())
	srv.Authenticator = stubAuthenticator{configured: true, valid: "ok"}

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"no header", "", false},
		{"wrong token", "bad", false},
		{"valid token", "ok", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bool
			h := srv.AdminTokenMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = types.IsAdmin(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set(AdminTokenHeader, tt.token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("middleware must never reject, got %d", w.Code)
			}
			if got != tt.want {
				t.Errorf("IsAdmin = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		auth       AdminAuthenticator
		admin      bool
		wantStatus int
		wantCode   string
	}{
		{"unconfigured", stubAuthenticator{}, true, http.StatusInternalServerError, "internal_admin_token_unconfigured"},
		{"nil authenticator", nil, true, http.StatusInternalServerError, "internal_admin_token_unconfigured"},
		{"not admin", stubAuthenticator{configured: true}, false, http.StatusUnauthorized, "auth_token_invalid"},
		{"admin", stubAuthenticator{configured: true}, true, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := NewServer(&config.Config{}, discardLogger())
			srv.Authenticator = tt.auth

			called := false
			h := srv.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			if tt.admin {
				req = req.WithContext(types.WithAdmin(req.Context()))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != (tt.wantCode == "") {
				t.Errorf("handler called = %v", called)
			}
			if tt.wantCode != "" {
				if got := decodeError(t, w.Body); got.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
				}
			}
		})
	}
}
