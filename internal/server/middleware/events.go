package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"ticketdesk/backend/internal/events"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for
// http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// RequestEvents emits an http_request event after each request. Best-effort:
// emit failures are logged and never fail the request. If producer is nil the
// middleware no-ops.
func RequestEvents(p events.Producer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			r = r.WithContext(SeedIdentity(r.Context()))
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			meta := httpRequestMetadata{
				Method:     r.Method,
				Path:       r.URL.Path,
				Status:     ww.Status(),
				DurationMs: time.Since(start).Milliseconds(),
				ClientIP:   GetClientIP(r.Context()),
			}
			metaJSON, _ := json.Marshal(meta)
			id, _ := GetIdentity(r.Context())
			event := &events.Event{
				UserID:    id.UserID,
				EventType: "http_request",
				Source:    "http_middleware",
				Metadata:  metaJSON,
				CreatedAt: time.Now().UTC(),
			}
			go func() {
				emitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := p.Emit(emitCtx, event); err != nil {
					log.Printf("events: emit failed: %v", err)
				}
			}()
		})
	}
}
