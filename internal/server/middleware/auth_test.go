package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticketdesk/backend/internal/security"
	userdomain "ticketdesk/backend/internal/user/domain"
)

func issueAccess(t *testing.T, tokens *security.TokenProvider, role userdomain.Role) string {
	t.Helper()
	token, _, err := tokens.IssueAccess("user-1", "alice@x.test", string(role))
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	return token
}

func TestAuthenticate(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	expired := security.NewTokenProvider(
		[]byte("test-access-secret"), []byte("test-refresh-secret"),
		"ticketdesk-test", -time.Minute, -time.Minute,
	)
	wrongSecret := security.NewTokenProvider(
		[]byte("other-access-secret"), []byte("other-refresh-secret"),
		"ticketdesk-test", 15*time.Minute, time.Hour,
	)
	refreshToken, _, err := tokens.IssueRefresh("user-1", "session-1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	expiredToken, _, err := expired.IssueAccess("user-1", "alice@x.test", "REQUESTER")
	if err != nil {
		t.Fatalf("IssueAccess expired: %v", err)
	}

	testCases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc123", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"refresh token in access slot", "Bearer " + refreshToken, http.StatusUnauthorized},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + issueAccess(t, wrongSecret, userdomain.RoleRequester), http.StatusUnauthorized},
		{"valid token", "Bearer " + issueAccess(t, tokens, userdomain.RoleRequester), http.StatusOK},
		{"lowercase scheme", "bearer " + issueAccess(t, tokens, userdomain.RoleRequester), http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotIdentity *Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if id, ok := GetIdentity(r.Context()); ok {
					gotIdentity = &id
				}
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			Authenticate(tokens)(next).ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusOK {
				if gotIdentity == nil {
					t.Fatal("handler ran without identity in context")
				}
				if gotIdentity.UserID != "user-1" || gotIdentity.Email != "alice@x.test" {
					t.Errorf("identity = %+v", gotIdentity)
				}
			} else if gotIdentity != nil {
				t.Error("handler must not run on rejected request")
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	testCases := []struct {
		name    string
		role    userdomain.Role
		allowed []userdomain.Role
		status  int
	}{
		{"admin on admin route", userdomain.RoleAdmin, []userdomain.Role{userdomain.RoleAdmin}, http.StatusOK},
		{"requester on admin route", userdomain.RoleRequester, []userdomain.Role{userdomain.RoleAdmin}, http.StatusForbidden},
		{"agent on admin+agent route", userdomain.RoleAgent, []userdomain.Role{userdomain.RoleAdmin, userdomain.RoleAgent}, http.StatusOK},
		{"requester on admin+agent route", userdomain.RoleRequester, []userdomain.Role{userdomain.RoleAdmin, userdomain.RoleAgent}, http.StatusForbidden},
		{"admin not implied elsewhere", userdomain.RoleAdmin, []userdomain.Role{userdomain.RoleRequester}, http.StatusForbidden},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			ctx := WithIdentity(req.Context(), Identity{UserID: "user-1", Role: string(tc.role)})
			rec := httptest.NewRecorder()
			RequireRoles(tc.allowed...)(next).ServeHTTP(rec, req.WithContext(ctx))

			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestRequireRoles_NoIdentity(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without an identity")
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	RequireRoles(userdomain.RoleAdmin)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestIdentitySlotVisibleToOuterMiddleware(t *testing.T) {
	tokens := security.NewTestTokenProvider()

	var observed Identity
	inner := Authenticate(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	outer := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := SeedIdentity(r.Context())
		inner.ServeHTTP(w, r.WithContext(ctx))
		// After the inner chain ran, the seeded slot holds the identity.
		observed, _ = GetIdentity(ctx)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, tokens, userdomain.RoleAgent))
	rec := httptest.NewRecorder()
	outer.ServeHTTP(rec, req)

	if observed.UserID != "user-1" {
		t.Errorf("outer middleware observed identity %+v, want user-1", observed)
	}
}

func TestExtractBearer(t *testing.T) {
	testCases := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"BEARER abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"Bearerabc", ""},
		{"Basic abc", ""},
		{"", ""},
		{"Bearer", ""},
	}
	for _, tc := range testCases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := ExtractBearer(req); got != tc.want {
			t.Errorf("ExtractBearer(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr", "10.0.0.1:1234", "", "10.0.0.1"},
		{"forwarded single", "10.0.0.1:1234", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain", "10.0.0.1:1234", "203.0.113.7, 10.0.0.2", "203.0.113.7"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetClientIP(r.Context())
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			ClientIPMiddleware(next).ServeHTTP(httptest.NewRecorder(), req)

			if got != tc.want {
				t.Errorf("client ip = %q, want %q", got, tc.want)
			}
		})
	}
}
