package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"humanizer/internal/config"

	"github.com/rs/zerolog"
)

func TestSecretResolverFillsOnlyEmptyValues(t *testing.T) {
	stored := map[string]string{
		"gemini-api-key":      "gm-secret",
		"paystack-secret-key": "sk-secret",
		"ai-detector-api-key": "det-secret",
	}
	var requested []string
	access := func(_ context.Context, name string) (string, error) {
		requested = append(requested, name)
		id := strings.TrimSuffix(strings.TrimPrefix(name, "projects/p1/secrets/"), "/versions/latest")
		v, ok := stored[id]
		if !ok {
			return "", errors.New("NotFound")
		}
		return v, nil
	}
	r := newSecretResolver("p1", access, nil, zerolog.Nop())

	cfg := &config.Config{PaystackSecretKey: "sk-from-env"}
	if err := r.Resolve(context.Background(), cfg); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.GeminiAPIKey != "gm-secret" || cfg.AIDetectorAPIKey != "det-secret" {
		t.Fatalf("expected secrets to be filled, got gemini=%q detector=%q", cfg.GeminiAPIKey, cfg.AIDetectorAPIKey)
	}
	if cfg.PaystackSecretKey != "sk-from-env" {
		t.Fatalf("environment value was overwritten: %q", cfg.PaystackSecretKey)
	}
	if cfg.SMTPPassword != "" {
		t.Fatalf("missing secret should stay empty, got %q", cfg.SMTPPassword)
	}
	for _, name := range requested {
		if strings.Contains(name, "paystack-secret-key") {
			t.Fatal("a configured value must not be fetched")
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSecretResolverStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	access := func(ctx context.Context, _ string) (string, error) {
		return "", ctx.Err()
	}
	r := newSecretResolver("p1", access, nil, zerolog.Nop())
	if err := r.Resolve(ctx, &config.Config{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
