package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKey struct{ name string }

var (
	identityKey = contextKey{"identity"}
	clientIPKey = contextKey{"client_ip"}
)

// Identity is the authenticated caller resolved by Authenticate. Downstream
// handlers must not re-derive authorization beyond role allowlists and
// resource-ownership checks based on these fields.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// WithIdentity returns a context carrying the authenticated caller. If an
// identity slot was seeded earlier in the middleware chain (see SeedIdentity)
// it is filled in place so outer middleware observes the identity too.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if slot, ok := ctx.Value(identityKey).(*Identity); ok {
		*slot = id
		return ctx
	}
	return context.WithValue(ctx, identityKey, &id)
}

// SeedIdentity places an empty identity slot in the context. Outer middleware
// (request events) uses this to read the identity that Authenticate resolves
// further down the chain.
func SeedIdentity(ctx context.Context) context.Context {
	return context.WithValue(ctx, identityKey, &Identity{})
}

// GetIdentity returns the authenticated caller and true if set; otherwise a
// zero Identity and false.
func GetIdentity(ctx context.Context) (Identity, bool) {
	slot, ok := ctx.Value(identityKey).(*Identity)
	if !ok || slot.UserID == "" {
		return Identity{}, false
	}
	return *slot, true
}

// ClientIPMiddleware stores the client IP in the request context so code that
// only sees a context (e.g. the audit logger) can still record it.
func ClientIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey, clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP returns the client IP stored by ClientIPMiddleware, or "".
func GetClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
