package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubSecretClient struct {
	responses map[string]string
	err       error
	calls     int
}

func (s *stubSecretClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	value, ok := s.responses[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "secret version not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}, nil
}

func (s *stubSecretClient) Close() error { return nil }

func TestResolveFetchesAndCaches(t *testing.T) {
	client := &stubSecretClient{
		responses: map[string]string{
			"projects/rudraksha-dev/secrets/razorpay-key/versions/latest": "rzp-secret",
		},
	}

	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(client),
		WithProject("rudraksha-dev"),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}
	defer fetcher.Close()

	value, err := fetcher.Resolve(context.Background(), "secret://razorpay-key")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if value != "rzp-secret" {
		t.Fatalf("unexpected secret value %q", value)
	}

	if _, err := fetcher.Resolve(context.Background(), "secret://razorpay-key"); err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected a single remote call, got %d", client.calls)
	}
}

func TestResolveHonoursVersionAndProjectOverrides(t *testing.T) {
	client := &stubSecretClient{
		responses: map[string]string{
			"projects/rudraksha-prod/secrets/webhook-secret/versions/3": "pinned",
		},
	}

	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(client),
		WithProject("rudraksha-dev"),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}
	defer fetcher.Close()

	value, err := fetcher.Resolve(context.Background(), "secret://webhook-secret?version=3&project=rudraksha-prod")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if value != "pinned" {
		t.Fatalf("unexpected secret value %q", value)
	}
}

func TestResolveFallsBackToLocalFile(t *testing.T) {
	dir := t.TempDir()
	fallbackPath := filepath.Join(dir, ".secrets.local")
	content := "secret://razorpay-key=local-secret\n# comment\n"
	if err := os.WriteFile(fallbackPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing fallback file: %v", err)
	}

	client := &stubSecretClient{err: status.Error(codes.Unavailable, "secret manager down")}

	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(client),
		WithProject("rudraksha-dev"),
		WithFallbackFile(fallbackPath),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}
	defer fetcher.Close()

	value, err := fetcher.Resolve(context.Background(), "secret://razorpay-key")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if value != "local-secret" {
		t.Fatalf("unexpected fallback value %q", value)
	}
}

func TestResolveSurfacesNonFallbackErrors(t *testing.T) {
	client := &stubSecretClient{err: status.Error(codes.NotFound, "no such secret")}

	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(client),
		WithProject("rudraksha-dev"),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}
	defer fetcher.Close()

	if _, err := fetcher.Resolve(context.Background(), "secret://missing"); err == nil {
		t.Fatal("expected error for missing secret, got nil")
	}
}

func TestResolveRejectsInvalidReferences(t *testing.T) {
	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(&stubSecretClient{}),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}
	defer fetcher.Close()

	cases := []string{"", "vault://thing", "secret://"}
	for _, ref := range cases {
		if _, err := fetcher.Resolve(context.Background(), ref); err == nil {
			t.Errorf("expected error for reference %q", ref)
		}
	}
}

func TestInvalidateClearsCache(t *testing.T) {
	client := &stubSecretClient{
		responses: map[string]string{
			"projects/rudraksha-dev/secrets/razorpay-key/versions/latest": "v1",
		},
	}

	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(client),
		WithProject("rudraksha-dev"),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}
	defer fetcher.Close()

	if _, err := fetcher.Resolve(context.Background(), "secret://razorpay-key"); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	client.responses["projects/rudraksha-dev/secrets/razorpay-key/versions/latest"] = "v2"
	fetcher.Invalidate("secret://razorpay-key")

	value, err := fetcher.Resolve(context.Background(), "secret://razorpay-key")
	if err != nil {
		t.Fatalf("Resolve after invalidate returned error: %v", err)
	}
	if value != "v2" {
		t.Fatalf("expected rotated value v2, got %q", value)
	}
	if client.calls != 2 {
		t.Fatalf("expected two remote calls, got %d", client.calls)
	}
}
