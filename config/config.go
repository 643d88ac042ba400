package config

import (
	"github.com/pulsewatch/server/internal/database"
	"github.com/pulsewatch/server/internal/http"
	"github.com/pulsewatch/server/pkg/notification"
	"github.com/pulsewatch/server/pkg/outcome"
	"github.com/pulsewatch/server/pkg/scheduler"
)

type Tracing struct {
	Enabled  bool
	Endpoint string `validate:"required_if=Enabled true"`
	Insecure bool
}

type Configuration struct {
	HTTP         http.Configuration
	Database     database.Configuration
	Scheduler    scheduler.Configuration
	Retention    outcome.Configuration
	Notification notification.Configuration
	Tracing      Tracing
}
