package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ticketdesk/backend/internal/auth/service"
	"ticketdesk/backend/internal/security"
	sessiondomain "ticketdesk/backend/internal/session/domain"
	userdomain "ticketdesk/backend/internal/user/domain"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*userdomain.User
	byEmail map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    map[string]*userdomain.User{},
		byEmail: map[string]*userdomain.User{},
	}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u2 := *u
	r.byID[u.ID] = &u2
	r.byEmail[u.Email] = &u2
	return nil
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: map[string]*sessiondomain.Session{}}
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s2 := *s
		return &s2, nil
	}
	return nil, nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.m[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) SetRefreshHash(ctx context.Context, sessionID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[sessionID]; ok {
		s.RefreshTokenHash = hash
	}
	return nil
}

func (r *memSessionRepo) SwapRefreshHash(ctx context.Context, sessionID, expected, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[sessionID]
	if !ok || s.RefreshTokenHash != expected || s.RevokedAt != nil {
		return false, nil
	}
	s.RefreshTokenHash = next
	return true, nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok && s.RevokedAt == nil {
		t := time.Now().UTC()
		s.RevokedAt = &t
	}
	return nil
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

func newTestHandler(limiter LoginLimiter) *Handler {
	tokens := security.NewTestTokenProvider()
	svc := service.NewAuthService(
		newMemUserRepo(), newMemSessionRepo(),
		security.NewHasher(4), tokens, time.Hour, nil,
	)
	return NewHandler(svc, tokens, limiter)
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func postBearer(t *testing.T, h http.HandlerFunc, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeTokens(t *testing.T, rec *httptest.ResponseRecorder) (access, refresh string) {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body["access_token"], body["refresh_token"]
}

func TestRegister(t *testing.T) {
	h := newTestHandler(nil)

	rec := postJSON(t, h.Register, `{"email":"alice@x.test","password":"pw123456","username":"Alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body)
	}
	access, refresh := decodeTokens(t, rec)
	if access == "" || refresh == "" {
		t.Error("response must contain access_token and refresh_token")
	}
}

func TestRegister_Errors(t *testing.T) {
	h := newTestHandler(nil)
	if rec := postJSON(t, h.Register, `{"email":"alice@x.test","password":"pw123456","username":"Alice"}`); rec.Code != http.StatusCreated {
		t.Fatalf("setup register: %d", rec.Code)
	}

	testCases := []struct {
		name   string
		body   string
		status int
	}{
		{"duplicate email", `{"email":"alice@x.test","password":"pw123456","username":"Bob"}`, http.StatusConflict},
		{"short password", `{"email":"bob@x.test","password":"pw","username":"Bob"}`, http.StatusBadRequest},
		{"malformed body", `{"email":`, http.StatusBadRequest},
		{"unknown field", `{"email":"bob@x.test","password":"pw123456","username":"Bob","role":"ADMIN"}`, http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := postJSON(t, h.Register, tc.body); rec.Code != tc.status {
				t.Errorf("status = %d, want %d, body: %s", rec.Code, tc.status, rec.Body)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	h := newTestHandler(nil)
	if rec := postJSON(t, h.Register, `{"email":"alice@x.test","password":"pw123456","username":"Alice"}`); rec.Code != http.StatusCreated {
		t.Fatalf("setup register: %d", rec.Code)
	}

	rec := postJSON(t, h.Login, `{"email":"alice@x.test","password":"pw123456"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body)
	}

	rec = postJSON(t, h.Login, `{"email":"alice@x.test","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}
	rec = postJSON(t, h.Login, `{"email":"nobody@x.test","password":"pw123456"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown email status = %d, want 401", rec.Code)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	h := newTestHandler(limiter)

	rec := postJSON(t, h.Login, `{"email":"alice@x.test","password":"pw123456"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if len(limiter.keys) != 1 || !strings.HasPrefix(limiter.keys[0], "login:ip:") {
		t.Errorf("limiter keys = %v, want one login:ip: key", limiter.keys)
	}
}

func TestLogin_LimiterConsultsBothKeys(t *testing.T) {
	limiter := &stubLimiter{allowed: true}
	h := newTestHandler(limiter)
	if rec := postJSON(t, h.Register, `{"email":"alice@x.test","password":"pw123456","username":"Alice"}`); rec.Code != http.StatusCreated {
		t.Fatalf("setup register: %d", rec.Code)
	}

	if rec := postJSON(t, h.Login, `{"email":"alice@x.test","password":"pw123456"}`); rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	if len(limiter.keys) != 2 {
		t.Fatalf("limiter keys = %v, want ip and email keys", limiter.keys)
	}
	if !strings.HasPrefix(limiter.keys[0], "login:ip:") || limiter.keys[1] != "login:email:alice@x.test" {
		t.Errorf("limiter keys = %v", limiter.keys)
	}
}

func TestLogin_LimiterFailsOpen(t *testing.T) {
	limiter := &stubLimiter{allowed: false, err: errors.New("redis down")}
	h := newTestHandler(limiter)
	if rec := postJSON(t, h.Register, `{"email":"alice@x.test","password":"pw123456","username":"Alice"}`); rec.Code != http.StatusCreated {
		t.Fatalf("setup register: %d", rec.Code)
	}

	rec := postJSON(t, h.Login, `{"email":"alice@x.test","password":"pw123456"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when limiter errors", rec.Code)
	}
}

func TestRefresh_RotationAndReplay(t *testing.T) {
	h := newTestHandler(nil)
	rec := postJSON(t, h.Register, `{"email":"alice@x.test","password":"pw123456","username":"Alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup register: %d", rec.Code)
	}
	_, refresh0 := decodeTokens(t, rec)

	rec = postBearer(t, h.Refresh, refresh0)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body: %s", rec.Code, rec.Body)
	}
	_, refresh1 := decodeTokens(t, rec)
	if refresh1 == refresh0 {
		t.Error("refresh must rotate the token")
	}

	if rec := postBearer(t, h.Refresh, refresh0); rec.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, want 401", rec.Code)
	}
	if rec := postBearer(t, h.Refresh, refresh1); rec.Code != http.StatusOK {
		t.Errorf("current token status = %d, want 200", rec.Code)
	}
}

func TestRefresh_Unauthorized(t *testing.T) {
	h := newTestHandler(nil)
	tokens := security.NewTestTokenProvider()
	access, _, err := tokens.IssueAccess("user-1", "alice@x.test", "REQUESTER")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	testCases := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage", "not-a-jwt"},
		{"access token in refresh slot", access},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := postBearer(t, h.Refresh, tc.token); rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	h := newTestHandler(nil)
	rec := postJSON(t, h.Register, `{"email":"alice@x.test","password":"pw123456","username":"Alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup register: %d", rec.Code)
	}
	_, refresh := decodeTokens(t, rec)

	rec = postBearer(t, h.Logout, refresh)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, body: %s", rec.Code, rec.Body)
	}
	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || !body["ok"] {
		t.Errorf("logout body = %s, want {\"ok\":true}", rec.Body)
	}

	// Logout does not consume the token semantically; re-logout of a revoked
	// session still succeeds, while refresh is rejected.
	if rec := postBearer(t, h.Logout, refresh); rec.Code != http.StatusOK {
		t.Errorf("second logout status = %d, want 200", rec.Code)
	}
	if rec := postBearer(t, h.Refresh, refresh); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want 401", rec.Code)
	}
}
