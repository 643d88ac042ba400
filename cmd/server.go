package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/pulsewatch/server/config"
	"github.com/pulsewatch/server/internal/database"
	apihttp "github.com/pulsewatch/server/internal/http"
	"github.com/pulsewatch/server/internal/http/handlers"
	"github.com/pulsewatch/server/internal/validator"
	"github.com/pulsewatch/server/pkg/endpoint"
	"github.com/pulsewatch/server/pkg/notification"
	"github.com/pulsewatch/server/pkg/outcome"
	"github.com/pulsewatch/server/pkg/probe"
	"github.com/pulsewatch/server/pkg/scheduler"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func buildServerCmd(logger func() *slog.Logger) *cobra.Command {
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Runs the HTTP server and the endpoints scheduler",
		Run: func(cmd *cobra.Command, args []string) {
			l := logger()
			err := runServer(l)
			if err != nil {
				l.Error(err.Error())
				os.Exit(2)
			}

		},
	}
	return serverCmd
}

func readConfig() (*config.Configuration, error) {
	if configFile == "" {
		return nil, errors.New("the --config flag is required")
	}
	file, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("fail to read configuration file: %w", err)
	}
	var config config.Configuration
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("fail to parse yaml configuration file: %w", err)
	}
	if err := validator.Validator.Struct(config.Tracing); err != nil {
		return nil, fmt.Errorf("invalid tracing configuration: %w", err)
	}
	if err := validator.Validator.Struct(config.Notification); err != nil {
		return nil, fmt.Errorf("invalid notification configuration: %w", err)
	}
	return &config, nil
}

func runServer(logger *slog.Logger) error {
	config, err := readConfig()
	if err != nil {
		return err
	}
	shutdownTracing, err := setupTracing(context.Background(), config.Tracing)
	if err != nil {
		return err
	}
	store, err := database.New(logger, config.Database)
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	controller, err := scheduler.New(logger, config.Scheduler, scheduler.Collaborators{
		Store:    store,
		Outcomes: store,
		Settings: store,
		Notifier: notification.NewEmailNotifier(logger, config.Notification),
		Prober:   probe.New(&http.Client{}),
	}, registry)
	if err != nil {
		return err
	}
	outcomeService, err := outcome.New(logger, store, config.Retention, registry)
	if err != nil {
		return err
	}
	endpointService := endpoint.New(logger, store, controller)
	settingsService := notification.NewSettingsService(logger, store)
	handlersBuilder := handlers.NewBuilder(endpointService, outcomeService, settingsService)
	server, err := apihttp.NewServer(logger, config.HTTP, registry, handlersBuilder)
	if err != nil {
		return err
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()
	if err := controller.Start(startCtx); err != nil {
		return fmt.Errorf("fail to start the scheduler: %w", err)
	}
	outcomeService.Start()

	signals := make(chan os.Signal, 1)
	errChan := make(chan error)

	signal.Notify(
		signals,
		syscall.SIGINT,
		syscall.SIGTERM)

	server.Start()
	go func() {
		for sig := range signals {
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				logger.Info(fmt.Sprintf("received signal %s, starting shutdown", sig))
				signal.Stop(signals)
				controller.StopAll()
				err := server.Stop()
				if err != nil {
					errChan <- err
					return
				}
				outcomeService.Stop()
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := controller.Shutdown(ctx); err != nil {
					logger.Error(fmt.Sprintf("fail to stop the scheduler: %s", err.Error()))
				}
				if err := shutdownTracing(ctx); err != nil {
					logger.Error(fmt.Sprintf("fail to stop tracing: %s", err.Error()))
				}
				cancel()
				errChan <- store.Close()
				return
			}

		}
	}()
	exitErr := <-errChan
	return exitErr
}
