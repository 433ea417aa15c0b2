package repositories

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDependencyHealthRepositoryCollectSuccess(t *testing.T) {
	checks := []DependencyCheck{
		{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				select {
				case <-time.After(10 * time.Millisecond):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		},
		{
			Name: "storage",
			Check: func(context.Context) error {
				return nil
			},
		},
	}

	repo, err := NewDependencyHealthRepository(checks)
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if !report.Healthy {
		t.Fatalf("expected healthy report, got %+v", report)
	}
	if len(report.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(report.Components))
	}
	for name, component := range report.Components {
		if !component.Healthy {
			t.Fatalf("expected component %s healthy, got %+v", name, component)
		}
	}
}

func TestDependencyHealthRepositoryCollectFailure(t *testing.T) {
	checks := []DependencyCheck{
		{
			Name:  "firestore",
			Check: func(context.Context) error { return nil },
		},
		{
			Name:  "pubsub",
			Check: func(context.Context) error { return errors.New("topic missing") },
		},
	}

	repo, err := NewDependencyHealthRepository(checks)
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if report.Healthy {
		t.Fatal("expected unhealthy report")
	}
	if component := report.Components["pubsub"]; component.Healthy || component.Detail != "topic missing" {
		t.Fatalf("unexpected pubsub component %+v", component)
	}
	if component := report.Components["firestore"]; !component.Healthy {
		t.Fatalf("expected firestore healthy, got %+v", component)
	}
}

func TestDependencyHealthRepositoryTimeout(t *testing.T) {
	checks := []DependencyCheck{
		{
			Name:    "firestore",
			Timeout: 10 * time.Millisecond,
			Check: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		},
	}

	repo, err := NewDependencyHealthRepository(checks)
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if report.Healthy {
		t.Fatal("expected unhealthy report after timeout")
	}
}

func TestDependencyHealthRepositoryRequiresChecks(t *testing.T) {
	if _, err := NewDependencyHealthRepository(nil); err == nil {
		t.Fatal("expected error for empty check set")
	}

	repo, err := NewDependencyHealthRepository([]DependencyCheck{{Name: ""}})
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}
	if _, err := repo.Collect(context.Background()); err == nil {
		t.Fatal("expected Collect to fail on unnamed check")
	}
}
