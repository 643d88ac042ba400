package notification

import (
	"context"
	"fmt"
	"log/slog"

	er "github.com/mcorbin/corbierror"
	"github.com/pulsewatch/server/internal/validator"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

type SettingsStore interface {
	GetSettings(ctx context.Context) (*aggregates.Settings, error)
	UpdateSettings(ctx context.Context, settings *aggregates.Settings) error
}

// SettingsService manages who gets alerted when a check fails
type SettingsService struct {
	logger *slog.Logger
	store  SettingsStore
}

func NewSettingsService(logger *slog.Logger, store SettingsStore) *SettingsService {
	return &SettingsService{
		logger: logger,
		store:  store,
	}
}

func (s *SettingsService) GetSettings(ctx context.Context) (*aggregates.Settings, error) {
	return s.store.GetSettings(ctx)
}

func (s *SettingsService) UpdateSettings(ctx context.Context, settings *aggregates.Settings) error {
	if err := validator.Validator.Struct(*settings); err != nil {
		return er.New(err.Error(), er.BadRequest, true)
	}
	if settings.NotificationsEnabled && len(settings.Recipients) == 0 {
		return er.New("At least one recipient is required to enable notifications", er.BadRequest, true)
	}
	if settings.Recipients == nil {
		settings.Recipients = []string{}
	}
	s.logger.Info(fmt.Sprintf("updating notification settings, enabled=%t", settings.NotificationsEnabled))
	return s.store.UpdateSettings(ctx, settings)
}
