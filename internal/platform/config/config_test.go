package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"STORE_FIREBASE_PROJECT_ID": "rudraksha-dev",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "rudraksha-dev" {
		t.Errorf("expected firestore project to default to firebase project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.PubSub.ProjectID != "rudraksha-dev" {
		t.Errorf("expected pubsub project to default to firebase project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.NotificationsTopic != defaultNotificationsTopic {
		t.Errorf("unexpected default notifications topic: %s", cfg.PubSub.NotificationsTopic)
	}
	if cfg.Razorpay.Currency != "INR" {
		t.Errorf("expected default currency INR, got %s", cfg.Razorpay.Currency)
	}
	if cfg.Shipping.FlatRate != defaultShippingFlatRate {
		t.Errorf("unexpected default shipping flat rate: %v", cfg.Shipping.FlatRate)
	}
	if cfg.Shipping.FreeShippingAbove != defaultFreeShippingAbove {
		t.Errorf("unexpected default free shipping threshold: %v", cfg.Shipping.FreeShippingAbove)
	}
	if cfg.Security.Environment != "local" {
		t.Errorf("expected default security environment local, got %s", cfg.Security.Environment)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"STORE_SERVER_PORT":             "9090",
		"STORE_SERVER_READ_TIMEOUT":     "20s",
		"STORE_SERVER_IDLE_TIMEOUT":     "2m",
		"STORE_FIREBASE_PROJECT_ID":     "rudraksha-prod",
		"STORE_FIRESTORE_PROJECT_ID":    "rudraksha-fire",
		"STORE_STORAGE_PRODUCTS_BUCKET": "products-prod",
		"STORE_RAZORPAY_KEY_ID":         "rzp_live_abc",
		"STORE_RAZORPAY_KEY_SECRET":     "secret://razorpay/key",
		"STORE_RAZORPAY_WEBHOOK_SECRET": "secret://razorpay/webhook",
		"STORE_PUBSUB_PROJECT_ID":       "rudraksha-msg",
		"STORE_PUBSUB_NOTIFICATIONS_TOPIC": "order-events",
		"STORE_SHIPPING_FLAT_RATE":      "80",
		"STORE_SHIPPING_FREE_ABOVE":     "1000",
		"STORE_SECURITY_ENVIRONMENT":    "PROD",
	}

	secrets := map[string]string{
		"secret://razorpay/key":     "rzp-key-secret",
		"secret://razorpay/webhook": "rzp-webhook-secret",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Firestore.ProjectID != "rudraksha-fire" {
		t.Errorf("unexpected firestore project %s", cfg.Firestore.ProjectID)
	}
	if cfg.Razorpay.KeyID != "rzp_live_abc" {
		t.Errorf("unexpected razorpay key id %s", cfg.Razorpay.KeyID)
	}
	if cfg.Razorpay.KeySecret != "rzp-key-secret" {
		t.Errorf("expected resolved key secret, got %s", cfg.Razorpay.KeySecret)
	}
	if cfg.Razorpay.WebhookSecret != "rzp-webhook-secret" {
		t.Errorf("expected resolved webhook secret, got %s", cfg.Razorpay.WebhookSecret)
	}
	if cfg.PubSub.ProjectID != "rudraksha-msg" {
		t.Errorf("unexpected pubsub project %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.NotificationsTopic != "order-events" {
		t.Errorf("unexpected notifications topic %s", cfg.PubSub.NotificationsTopic)
	}
	if cfg.Shipping.FlatRate != 80 {
		t.Errorf("unexpected shipping flat rate %v", cfg.Shipping.FlatRate)
	}
	if cfg.Shipping.FreeShippingAbove != 1000 {
		t.Errorf("unexpected free shipping threshold %v", cfg.Shipping.FreeShippingAbove)
	}
	if cfg.Security.Environment != "prod" {
		t.Errorf("expected security environment prod, got %s", cfg.Security.Environment)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "STORE_SERVER_PORT=7070\nSTORE_FIREBASE_PROJECT_ID=rudraksha-dot\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Firebase.ProjectID != "rudraksha-dot" {
		t.Errorf("expected firebase project from dotenv, got %s", cfg.Firebase.ProjectID)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestLoadSecretResolverError(t *testing.T) {
	env := map[string]string{
		"STORE_FIREBASE_PROJECT_ID": "rudraksha-dev",
		"STORE_RAZORPAY_KEY_SECRET": "secret://missing",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected secret resolution error, got nil")
	}
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %T", err)
	}
	if secretErr.Ref != "secret://missing" {
		t.Errorf("unexpected secret ref %s", secretErr.Ref)
	}
}

func TestLoadMissingRequiredSecrets(t *testing.T) {
	env := map[string]string{
		"STORE_FIREBASE_PROJECT_ID": "rudraksha-dev",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""),
		WithRequiredSecrets("Razorpay.KeySecret"))
	if err == nil {
		t.Fatal("expected missing secrets error, got nil")
	}
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %T", err)
	}
	if names := missing.Names(); len(names) != 1 || names[0] != "Razorpay.KeySecret" {
		t.Fatalf("unexpected missing secret names %v", names)
	}
}

func TestEnvironmentValuesMergesSources(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "STORE_FIREBASE_PROJECT_ID=dot-project\nSTORE_SECRET_FALLBACK_FILE=.dot.local\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}

	t.Setenv("STORE_FIREBASE_PROJECT_ID", "os-project")

	overrides := map[string]string{
		"STORE_FIREBASE_PROJECT_ID": "override-project",
	}

	values, err := EnvironmentValues(WithEnvFile(envPath), WithEnvMap(overrides))
	if err != nil {
		t.Fatalf("EnvironmentValues returned error: %v", err)
	}

	if got := values["STORE_FIREBASE_PROJECT_ID"]; got != "override-project" {
		t.Fatalf("expected override project, got %s", got)
	}
	if got := values["STORE_SECRET_FALLBACK_FILE"]; got != ".dot.local" {
		t.Fatalf("expected dotenv fallback value, got %s", got)
	}
}
