package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "ticketdesk-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "ticketdesk-auth")
	}
	if cfg.JWTAccessTTL != "60m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "60m")
	}
	if cfg.JWTRefreshTTL != "168h" {
		t.Errorf("JWTRefreshTTL = %q, want %q", cfg.JWTRefreshTTL, "168h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.LoginRateMax != 10 {
		t.Errorf("LoginRateMax = %d, want 10", cfg.LoginRateMax)
	}
	if cfg.EventsKafkaTopic != "ticketdesk-events" {
		t.Errorf("EventsKafkaTopic = %q, want %q", cfg.EventsKafkaTopic, "ticketdesk-events")
	}
	if cfg.KafkaGroupID != "ticketdesk-events-worker" {
		t.Errorf("KafkaGroupID = %q, want %q", cfg.KafkaGroupID, "ticketdesk-events-worker")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, want %q", cfg.RedisAddr, "localhost:6379")
	}
}

func TestLoad_SecretsMustDiffer(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_ACCESS_SECRET", "same-secret")
	os.Setenv("JWT_REFRESH_SECRET", "same-secret")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should return error when access and refresh secrets match")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
}

func TestLoad_DistinctSecretsAccepted(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_ACCESS_SECRET", "access-secret")
	os.Setenv("JWT_REFRESH_SECRET", "refresh-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTAccessSecret != "access-secret" || cfg.JWTRefreshSecret != "refresh-secret" {
		t.Errorf("secrets = %q/%q, want access-secret/refresh-secret", cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	}
}

func TestLoad_BcryptCostRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero defaults", "0", 12, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_ACCESS_TTL", "30m")
	os.Setenv("JWT_REFRESH_TTL", "336h")
	os.Setenv("LOGIN_RATE_WINDOW", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want %v", got, 30*time.Minute)
	}
	if got := cfg.RefreshTTL(); got != 336*time.Hour {
		t.Errorf("RefreshTTL = %v, want %v", got, 336*time.Hour)
	}
	if got := cfg.RateWindow(); got != 5*time.Minute {
		t.Errorf("RateWindow = %v, want %v", got, 5*time.Minute)
	}
}

func TestDurationAccessors_InvalidFallBackToDefaults(t *testing.T) {
	for _, value := range []string{"invalid", "0", "-5m"} {
		t.Run(value, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("JWT_ACCESS_TTL", value)
			os.Setenv("JWT_REFRESH_TTL", value)
			os.Setenv("LOGIN_RATE_WINDOW", value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.AccessTTL(); got != 60*time.Minute {
				t.Errorf("AccessTTL = %v, want %v (default)", got, 60*time.Minute)
			}
			if got := cfg.RefreshTTL(); got != 168*time.Hour {
				t.Errorf("RefreshTTL = %v, want %v (default)", got, 168*time.Hour)
			}
			if got := cfg.RateWindow(); got != time.Minute {
				t.Errorf("RateWindow = %v, want %v (default)", got, time.Minute)
			}
		})
	}
}

func TestEventsKafkaBrokersList(t *testing.T) {
	testCases := []struct {
		name    string
		brokers string
		want    int
	}{
		{"empty", "", 0},
		{"single", "localhost:9092", 1},
		{"multiple with spaces", "b1:9092, b2:9092 ,b3:9092", 3},
		{"trailing comma", "localhost:9092,", 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{EventsKafkaBrokers: tc.brokers}
			if got := cfg.EventsKafkaBrokersList(); len(got) != tc.want {
				t.Errorf("EventsKafkaBrokersList() = %v, want %d entries", got, tc.want)
			}
		})
	}
}
