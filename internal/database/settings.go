package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

type settings struct {
	NotificationsEnabled bool `db:"notifications_enabled"`
	Recipients           string
}

// GetSettings returns the stored settings, or disabled notifications when
// nothing was saved yet
func (c *Database) GetSettings(ctx context.Context) (*aggregates.Settings, error) {
	s := settings{}
	err := c.db.GetContext(ctx, &s, "SELECT notifications_enabled, recipients FROM settings WHERE id=1")
	if err != nil {
		if err == sql.ErrNoRows {
			return &aggregates.Settings{Recipients: []string{}}, nil
		}
		return nil, fmt.Errorf("fail to get settings: %w", err)
	}
	recipients, err := fromJSON[[]string](&s.Recipients)
	if err != nil {
		return nil, err
	}
	return &aggregates.Settings{
		NotificationsEnabled: s.NotificationsEnabled,
		Recipients:           recipients,
	}, nil
}

func (c *Database) UpdateSettings(ctx context.Context, update *aggregates.Settings) error {
	recipientsList := update.Recipients
	if recipientsList == nil {
		recipientsList = []string{}
	}
	recipients, err := toJSON(recipientsList)
	if err != nil {
		return err
	}
	data := settings{
		NotificationsEnabled: update.NotificationsEnabled,
		Recipients:           *recipients,
	}
	_, err = c.db.NamedExecContext(ctx, "INSERT INTO settings (id, notifications_enabled, recipients) VALUES (1, :notifications_enabled, :recipients) ON CONFLICT (id) DO UPDATE SET notifications_enabled=EXCLUDED.notifications_enabled, recipients=EXCLUDED.recipients", data)
	if err != nil {
		return fmt.Errorf("fail to update settings: %w", err)
	}
	return nil
}
