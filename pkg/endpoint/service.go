package endpoint

import (
	"context"
	"log/slog"

	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

type Store interface {
	CreateEndpoint(ctx context.Context, endpoint *aggregates.Endpoint) error
	UpdateEndpoint(ctx context.Context, endpoint *aggregates.Endpoint) error
	GetEndpoint(ctx context.Context, id string) (*aggregates.Endpoint, error)
	DeleteEndpoint(ctx context.Context, id string) error
	ListEndpoints(ctx context.Context, query aggregates.Query) ([]*aggregates.Endpoint, error)
	CountEndpoints(ctx context.Context) (int, error)
}

// Scheduler keeps endpoint schedules in sync with the store
type Scheduler interface {
	RescheduleEndpoint(ctx context.Context, id string) error
	UnscheduleEndpoint(id string)
	CheckNow(ctx context.Context, endpoint *aggregates.Endpoint) aggregates.Outcome
}

type Service struct {
	logger    *slog.Logger
	store     Store
	scheduler Scheduler
}

func New(logger *slog.Logger, store Store, scheduler Scheduler) *Service {
	return &Service{
		logger:    logger,
		store:     store,
		scheduler: scheduler,
	}
}
