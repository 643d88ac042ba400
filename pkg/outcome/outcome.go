package outcome

import (
	"context"
	"fmt"
	"time"

	er "github.com/mcorbin/corbierror"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

const (
	DefaultLimit  = 50
	MaxLimit      = 1000
	DefaultWindow = 24 * time.Hour
)

// ListOutcomes returns the latest outcomes of an endpoint, most recent first
func (s *Service) ListOutcomes(ctx context.Context, endpointID string, limit int) ([]*aggregates.Outcome, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 || limit > MaxLimit {
		return nil, er.Newf("The limit should be between 1 and %d", er.BadRequest, true, MaxLimit)
	}
	return s.store.ListOutcomes(ctx, endpointID, limit)
}

func (s *Service) Summary(ctx context.Context, endpointID string, window time.Duration) (*aggregates.Summary, error) {
	if window == 0 {
		window = DefaultWindow
	}
	if window < 0 {
		return nil, er.New("The summary window should be positive", er.BadRequest, true)
	}
	return s.store.SummarizeOutcomes(ctx, endpointID, s.now().UTC().Add(-window))
}

// CleanOutcomes deletes the outcomes older than the retention period
func (s *Service) CleanOutcomes(ctx context.Context) (int64, error) {
	threshold := s.now().UTC().Add(-time.Duration(s.config.Days) * 24 * time.Hour)
	count, err := s.store.DeleteOutcomesBefore(ctx, threshold)
	if err != nil {
		s.logger.Error(fmt.Sprintf("fail to clean outcomes: %s", err.Error()))
		s.cleanupExecutionsCounter.With(map[string]string{"status": "failure"}).Inc()
		return 0, err
	}
	s.logger.Debug(fmt.Sprintf("%d outcomes deleted", count))
	s.cleanupExecutionsCounter.With(map[string]string{"status": "success"}).Inc()
	return count, nil
}
