package handlers

import (
	"context"
	"time"

	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

type EndpointService interface {
	CreateEndpoint(ctx context.Context, endpoint *aggregates.Endpoint) error
	UpdateEndpoint(ctx context.Context, endpoint *aggregates.Endpoint) error
	GetEndpoint(ctx context.Context, id string) (*aggregates.Endpoint, error)
	DeleteEndpoint(ctx context.Context, id string) error
	ListEndpoints(ctx context.Context, query aggregates.Query) ([]*aggregates.Endpoint, error)
	CheckNow(ctx context.Context, id string) (*aggregates.Outcome, error)
}

type OutcomeService interface {
	ListOutcomes(ctx context.Context, endpointID string, limit int) ([]*aggregates.Outcome, error)
	Summary(ctx context.Context, endpointID string, window time.Duration) (*aggregates.Summary, error)
}

type SettingsService interface {
	GetSettings(ctx context.Context) (*aggregates.Settings, error)
	UpdateSettings(ctx context.Context, settings *aggregates.Settings) error
}

type Builder struct {
	endpoint EndpointService
	outcome  OutcomeService
	settings SettingsService
}

func NewBuilder(endpoint EndpointService, outcome OutcomeService, settings SettingsService) *Builder {
	return &Builder{
		endpoint: endpoint,
		outcome:  outcome,
		settings: settings,
	}
}
