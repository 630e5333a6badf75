package middleware

import (
	"net/http"
	"strings"

	"ticketdesk/backend/internal/platform/web"
	"ticketdesk/backend/internal/security"
	userdomain "ticketdesk/backend/internal/user/domain"
)

const bearerPrefix = "bearer "

// Authenticate validates the Bearer access token and puts the resolved
// Identity in the request context. Missing, malformed, wrongly signed, and
// expired tokens all produce 401. Authentication (who) always runs before
// authorization (what they may do); compose RequireRoles after this.
func Authenticate(tokens *security.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearer(r)
			if token == "" {
				web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			userID, email, role, err := tokens.ValidateAccess(token)
			if err != nil {
				web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			ctx := WithIdentity(r.Context(), Identity{UserID: userID, Email: email, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects with 403 when the authenticated caller's role is not in
// the route's allowlist. Must run after Authenticate; a request that somehow
// reaches it without an identity gets 401.
func RequireRoles(roles ...userdomain.Role) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[string(role)] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			if !allowed[id.Role] {
				web.WriteError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ExtractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func ExtractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
