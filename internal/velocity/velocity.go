// Package velocity provides sender-frequency calculation. A sender
// blasting many messages inside a short window is a phishing campaign
// signal the expression rules can score on.
package velocity

import (
	"context"
	"fmt"
	"time"

	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

// Getter returns the message count for a sender in a time window.
// This is the function signature the detector consumes.
type Getter func(ctx context.Context, tenantID, sender string, windowSecs int) (int64, error)

// Service calculates sender message frequency.
type Service struct {
	repo  domain.Repository
	cache domain.Cache
}

// NewService creates a new velocity service.
func NewService(repo domain.Repository, cache domain.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// SenderCount returns the number of messages seen from a sender within
// the window. The rolling cache counter is preferred when a cache is
// configured: it is atomic, shared across instances in the two-phase
// setup, and bumped here so every analysis feeds the next one. The
// repository count is the fallback.
func (s *Service) SenderCount(ctx context.Context, tenantID, sender string, windowSecs int) (int64, error) {
	if tenantID == "" || sender == "" {
		return 0, fmt.Errorf("tenantID and sender are required")
	}

	if s.cache != nil {
		count, err := s.Observe(ctx, tenantID, sender, time.Duration(windowSecs)*time.Second)
		if err == nil {
			return count, nil
		}
	}

	if s.repo == nil {
		return 0, fmt.Errorf("no data source available")
	}

	since := time.Now().Add(-time.Duration(windowSecs) * time.Second)
	count, err := s.repo.CountEmailsBySender(ctx, tenantID, sender, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count sender messages: %w", err)
	}

	return count, nil
}

// Observe bumps the rolling counter for a sender. Counters live in the
// cache so the hot path never touches the database.
func (s *Service) Observe(ctx context.Context, tenantID, sender string, window time.Duration) (int64, error) {
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.IncrementCounter(ctx, tenantID, "sender:"+sender, window)
}

// GetSenderGetter returns a Getter for the detector.
func (s *Service) GetSenderGetter() Getter {
	return s.SenderCount
}
