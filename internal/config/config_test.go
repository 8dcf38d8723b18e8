package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "STORE_DRIVER", "PAYMENT_SUCCESS_RATE", "KAFKA_BROKERS", "CHAT_API_KEY", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.StoreDriver != StoreDriverPostgres {
		t.Fatalf("unexpected driver %q", cfg.StoreDriver)
	}
	if cfg.PaymentSuccessRate != 0.9 {
		t.Fatalf("unexpected success rate %v", cfg.PaymentSuccessRate)
	}
	if cfg.KafkaBrokers != nil {
		t.Fatalf("expected no brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.Chat.APIKey != "" {
		t.Fatalf("chat key must not have a default")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("PAYMENT_SUCCESS_RATE", "1.7")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CHAT_TIMEOUT_SECONDS", "3")
	t.Setenv("CHAT_HISTORY_TURNS", "oops")
	t.Setenv("DEFAULT_CURRENCY", "eur")

	cfg := FromEnv()
	if cfg.StoreDriver != StoreDriverMemory {
		t.Fatalf("unexpected driver %q", cfg.StoreDriver)
	}
	if cfg.PaymentSuccessRate != 1 {
		t.Fatalf("expected clamped rate, got %v", cfg.PaymentSuccessRate)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.Chat.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.Chat.Timeout)
	}
	if cfg.Chat.HistoryTurns != 5 {
		t.Fatalf("expected default turns on bad input, got %d", cfg.Chat.HistoryTurns)
	}
	if cfg.DefaultCurrency != "EUR" {
		t.Fatalf("unexpected currency %q", cfg.DefaultCurrency)
	}
}
