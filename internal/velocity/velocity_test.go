package velocity

import (
	"context"
	"testing"
	"time"

	"github.com/AamirAhmadDon/phishing-detector/internal/cache"
	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

type stubRepo struct {
	domain.Repository
	count int64
}

func (s *stubRepo) CountEmailsBySender(ctx context.Context, tenantID, sender string, since time.Time) (int64, error) {
	return s.count, nil
}

func TestSenderCount(t *testing.T) {
	svc := NewService(&stubRepo{count: 12}, nil)
	ctx := context.Background()

	count, err := svc.SenderCount(ctx, "tenant-a", "spam@example.com", 3600)
	if err != nil {
		t.Fatalf("SenderCount failed: %v", err)
	}
	if count != 12 {
		t.Errorf("expected 12, got %d", count)
	}

	t.Run("requires tenant and sender", func(t *testing.T) {
		if _, err := svc.SenderCount(ctx, "", "spam@example.com", 3600); err == nil {
			t.Error("expected error for empty tenant")
		}
		if _, err := svc.SenderCount(ctx, "tenant-a", "", 3600); err == nil {
			t.Error("expected error for empty sender")
		}
	})

	t.Run("prefers rolling counter", func(t *testing.T) {
		counted := NewService(&stubRepo{count: 12}, cache.NewLRUCache(10))
		for want := int64(1); want <= 2; want++ {
			got, err := counted.SenderCount(ctx, "tenant-a", "spam@example.com", 3600)
			if err != nil {
				t.Fatalf("SenderCount failed: %v", err)
			}
			if got != want {
				t.Errorf("expected counter value %d, got %d", want, got)
			}
		}
	})

	t.Run("no repository", func(t *testing.T) {
		empty := NewService(nil, nil)
		if _, err := empty.SenderCount(ctx, "tenant-a", "spam@example.com", 3600); err == nil {
			t.Error("expected error without a data source")
		}
	})
}

func TestObserve(t *testing.T) {
	svc := NewService(nil, cache.NewLRUCache(10))
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := svc.Observe(ctx, "tenant-a", "spam@example.com", time.Minute)
		if err != nil {
			t.Fatalf("Observe failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}

	// No cache is a no-op, not an error
	none := NewService(nil, nil)
	if _, err := none.Observe(ctx, "tenant-a", "x", time.Minute); err != nil {
		t.Errorf("expected nil error without cache, got %v", err)
	}
}
