package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pulsewatch/server/pkg/client"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

func (b *Builder) GetSettings(ec echo.Context) error {
	settings, err := b.settings.GetSettings(ec.Request().Context())
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, client.Settings{
		NotificationsEnabled: settings.NotificationsEnabled,
		Recipients:           settings.Recipients,
	})
}

func (b *Builder) UpdateSettings(ec echo.Context) error {
	var payload client.UpdateSettingsInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}
	err := b.settings.UpdateSettings(ec.Request().Context(), &aggregates.Settings{
		NotificationsEnabled: payload.NotificationsEnabled,
		Recipients:           payload.Recipients,
	})
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, NewResponse("Settings updated"))
}
