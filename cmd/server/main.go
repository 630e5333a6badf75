// Server runs the ticketing HTTP API: auth and session lifecycle, role-aware
// ticket/category/comment routes, and optional Kafka request events and OTLP
// telemetry.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authhandler "ticketdesk/backend/internal/auth/handler"
	authservice "ticketdesk/backend/internal/auth/service"
	"ticketdesk/backend/internal/audit"
	auditrepo "ticketdesk/backend/internal/audit/repository"
	categoryhandler "ticketdesk/backend/internal/category/handler"
	categoryrepo "ticketdesk/backend/internal/category/repository"
	commenthandler "ticketdesk/backend/internal/comment/handler"
	commentrepo "ticketdesk/backend/internal/comment/repository"
	"ticketdesk/backend/internal/config"
	"ticketdesk/backend/internal/db"
	"ticketdesk/backend/internal/events"
	"ticketdesk/backend/internal/policy/engine"
	"ticketdesk/backend/internal/ratelimit"
	"ticketdesk/backend/internal/security"
	"ticketdesk/backend/internal/server"
	"ticketdesk/backend/internal/server/middleware"
	sessionrepo "ticketdesk/backend/internal/session/repository"
	"ticketdesk/backend/internal/telemetry/otel"
	tickethandler "ticketdesk/backend/internal/ticket/handler"
	ticketrepo "ticketdesk/backend/internal/ticket/repository"
	ticketservice "ticketdesk/backend/internal/ticket/service"
	userhandler "ticketdesk/backend/internal/user/handler"
	userrepo "ticketdesk/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		log.Fatal("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "ticketdesk-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	users := userrepo.NewPostgresRepository(database)
	sessions := sessionrepo.NewPostgresRepository(database)
	tickets := ticketrepo.NewPostgresRepository(database)
	categories := categoryrepo.NewPostgresRepository(database)
	comments := commentrepo.NewPostgresRepository(database)
	auditLog := audit.NewLogger(auditrepo.NewPostgresRepository(database), middleware.GetClientIP)

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider(
		[]byte(cfg.JWTAccessSecret), []byte(cfg.JWTRefreshSecret),
		cfg.JWTIssuer, cfg.AccessTTL(), cfg.RefreshTTL(),
	)

	policy, err := engine.NewOPAEvaluator(ctx)
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	var limiter authhandler.LoginLimiter
	if cfg.RedisAddr != "" {
		rl, err := ratelimit.New(cfg.RedisAddr, cfg.RedisPassword, cfg.LoginRateMax, cfg.RateWindow())
		if err != nil {
			log.Fatalf("ratelimit: %v", err)
		}
		defer rl.Close()
		limiter = rl
	}

	var producer events.Producer
	if kp, err := events.NewKafkaProducer(cfg.EventsKafkaBrokersList(), cfg.EventsKafkaTopic); err != nil {
		log.Fatalf("events: %v", err)
	} else if kp != nil {
		producer = kp
		defer kp.Close()
		log.Printf("request events enabled: topic %s", cfg.EventsKafkaTopic)
	}

	authSvc := authservice.NewAuthService(users, sessions, hasher, tokens, cfg.RefreshTTL(), auditLog)
	ticketSvc := ticketservice.NewTicketService(tickets, users, categories, tickets, policy, auditLog)

	handlers := server.Handlers{
		Auth:       authhandler.NewHandler(authSvc, tokens, limiter),
		Users:      userhandler.NewHandler(users),
		Tickets:    tickethandler.NewHandler(ticketSvc),
		Categories: categoryhandler.NewHandler(categories),
		Comments:   commenthandler.NewHandler(comments, tickets, policy),
	}

	router := server.NewRouter(
		tokens,
		producer,
		providers.TracerProvider.Tracer("ticketdesk/backend/internal/server"),
		providers.MeterProvider.Meter("ticketdesk/backend/internal/server"),
		handlers,
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
