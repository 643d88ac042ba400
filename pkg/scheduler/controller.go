package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	er "github.com/mcorbin/corbierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pulsewatch/server/internal/validator"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
	"github.com/robfig/cron/v3"
)

type Store interface {
	ListEndpoints(ctx context.Context, query aggregates.Query) ([]*aggregates.Endpoint, error)
	GetEndpoint(ctx context.Context, id string) (*aggregates.Endpoint, error)
}

type OutcomeSink interface {
	CreateOutcome(ctx context.Context, outcome *aggregates.Outcome) error
}

type SettingsProvider interface {
	GetSettings(ctx context.Context) (*aggregates.Settings, error)
}

type Notifier interface {
	Notify(ctx context.Context, endpoint *aggregates.Endpoint, outcome *aggregates.Outcome, settings *aggregates.Settings) error
}

type Prober interface {
	Execute(ctx context.Context, endpoint *aggregates.Endpoint) aggregates.Outcome
}

// Collaborators are the components a firing hands its outcome to.
// Settings and Notifier are optional.
type Collaborators struct {
	Store    Store
	Outcomes OutcomeSink
	Settings SettingsProvider
	Notifier Notifier
	Prober   Prober
}

type Controller struct {
	logger        *slog.Logger
	config        Configuration
	collaborators Collaborators
	registry      *Registry
	cron          *cron.Cron
	pool          *Pool

	executionsCounter *prometheus.CounterVec
	durationHistogram prometheus.Histogram
	sinkErrorsCounter *prometheus.CounterVec
}

func New(logger *slog.Logger, config Configuration, collaborators Collaborators, registry *prometheus.Registry) (*Controller, error) {
	if collaborators.Store == nil || collaborators.Outcomes == nil || collaborators.Prober == nil {
		return nil, errors.New("the scheduler requires an endpoint store, an outcome sink and a prober")
	}
	config.setDefaults()
	if err := validator.Validator.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid scheduler configuration: %w", err)
	}
	executionsCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "probe_executions_total",
			Help: "Count the number of endpoint checks.",
		},
		[]string{"healthy"})
	durationHistogram := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "probe_duration_seconds",
			Help: "Latency of endpoint checks",
			Buckets: []float64{
				0.05, 0.1, 0.2, 0.4, 0.8, 1,
				1.5, 2, 3, 5, 10, 30},
		})
	sinkErrorsCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "probe_sink_errors_total",
			Help: "Count the errors returned while handing over check outcomes.",
		},
		[]string{"sink"})
	scheduleRegistry := NewRegistry()
	scheduledGauge := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "scheduled_endpoints",
			Help: "Number of endpoints currently scheduled.",
		},
		func() float64 {
			return float64(scheduleRegistry.Len())
		})
	for _, collector := range []prometheus.Collector{executionsCounter, durationHistogram, sinkErrorsCounter, scheduledGauge} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}
	cronLog := cronLogger{logger: logger}
	return &Controller{
		logger:            logger,
		config:            config,
		collaborators:     collaborators,
		registry:          scheduleRegistry,
		cron:              cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog))),
		pool:              NewPool(logger, config.Workers, config.QueueSize),
		executionsCounter: executionsCounter,
		durationHistogram: durationHistogram,
		sinkErrorsCounter: sinkErrorsCounter,
	}, nil
}

// Start schedules every active endpoint of the store
func (c *Controller) Start(ctx context.Context) error {
	active := true
	endpoints, err := c.collaborators.Store.ListEndpoints(ctx, aggregates.Query{Active: &active})
	if err != nil {
		return fmt.Errorf("fail to load endpoints: %w", err)
	}
	c.cron.Start()
	for _, endpoint := range endpoints {
		c.ScheduleEndpoint(endpoint)
	}
	c.logger.Info(fmt.Sprintf("scheduler started with %d endpoints", c.registry.Len()))
	return nil
}

// ScheduleEndpoint replaces the schedule of the endpoint according to its
// current definition. Inactive or misconfigured endpoints end up unscheduled.
func (c *Controller) ScheduleEndpoint(endpoint *aggregates.Endpoint) {
	c.UnscheduleEndpoint(endpoint.ID)
	if !endpoint.Active {
		c.logger.Debug(fmt.Sprintf("endpoint %s is inactive, not scheduling it", endpoint.ID))
		return
	}
	// the firings work on their own copy
	ep := *endpoint
	switch endpoint.ScheduleMode {
	case aggregates.ScheduleCron:
		if endpoint.CronSchedule != nil && *endpoint.CronSchedule != "" {
			c.scheduleCron(ep, *endpoint.CronSchedule)
			return
		}
	case aggregates.ScheduleInterval:
		if endpoint.CheckFrequency != nil && *endpoint.CheckFrequency > 0 {
			c.scheduleInterval(ep, time.Duration(*endpoint.CheckFrequency)*c.config.IntervalUnit)
			return
		}
	}
	c.logger.Warn(fmt.Sprintf("endpoint %s (%s) has an invalid schedule configuration, mode %q with frequency %s and cron schedule %s",
		endpoint.ID, endpoint.Name, endpoint.ScheduleMode, formatInt(endpoint.CheckFrequency), formatString(endpoint.CronSchedule)))
}

func (c *Controller) scheduleCron(endpoint aggregates.Endpoint, expression string) {
	schedule, err := cron.ParseStandard(expression)
	if err != nil {
		c.logger.Warn(fmt.Sprintf("fail to register cron schedule %q for endpoint %s: %s", expression, endpoint.ID, err.Error()))
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	entry := c.cron.Schedule(schedule, cron.FuncJob(func() {
		c.dispatch(ctx, endpoint)
	}))
	handle := &cronHandle{cron: c.cron, entry: entry, cancel: cancel}
	if c.registry.Install(endpoint.ID, handle) {
		c.logger.Info(fmt.Sprintf("endpoint %s scheduled with cron %q", endpoint.ID, expression))
	}
}

func (c *Controller) scheduleInterval(endpoint aggregates.Endpoint, period time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	if !c.registry.Install(endpoint.ID, &intervalHandle{cancel: cancel}) {
		return
	}
	c.logger.Info(fmt.Sprintf("endpoint %s scheduled every %s", endpoint.ID, period))
	go func() {
		c.dispatch(ctx, endpoint)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.dispatch(ctx, endpoint)
			}
		}
	}()
}

// dispatch hands a firing to the worker pool. The context only covers the
// wait for a free slot: a firing which started always runs to completion.
func (c *Controller) dispatch(ctx context.Context, endpoint aggregates.Endpoint) {
	if ctx.Err() != nil {
		return
	}
	ok := c.pool.Submit(ctx, func() {
		c.fire(&endpoint)
	})
	if !ok {
		c.logger.Debug(fmt.Sprintf("check of endpoint %s skipped, schedule stopped", endpoint.ID))
	}
}

func (c *Controller) fire(endpoint *aggregates.Endpoint) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(fmt.Sprintf("panic while checking endpoint %s: %v", endpoint.ID, r))
		}
	}()
	c.CheckNow(context.Background(), endpoint)
}

// CheckNow runs one check of the endpoint and hands its outcome over to the
// outcome sink and, when unhealthy, to the notifier.
func (c *Controller) CheckNow(ctx context.Context, endpoint *aggregates.Endpoint) aggregates.Outcome {
	outcome := c.collaborators.Prober.Execute(ctx, endpoint)
	c.executionsCounter.With(prometheus.Labels{"healthy": fmt.Sprintf("%t", outcome.Healthy)}).Inc()
	c.durationHistogram.Observe(outcome.Latency.Seconds())
	if outcome.Healthy {
		c.logger.Debug(fmt.Sprintf("endpoint %s is healthy", endpoint.ID), "latency", outcome.Latency.String())
	} else {
		c.logger.Warn(fmt.Sprintf("endpoint %s is unhealthy", endpoint.ID), "error", formatString(outcome.Error))
	}

	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.SinkTimeout)
	defer cancel()
	if err := c.collaborators.Outcomes.CreateOutcome(sinkCtx, &outcome); err != nil {
		c.sinkErrorsCounter.With(prometheus.Labels{"sink": "outcome"}).Inc()
		c.logger.Error(fmt.Sprintf("fail to record outcome for endpoint %s: %s", endpoint.ID, err.Error()))
	}
	if !outcome.Healthy {
		c.notify(sinkCtx, endpoint, &outcome)
	}
	return outcome
}

func (c *Controller) notify(ctx context.Context, endpoint *aggregates.Endpoint, outcome *aggregates.Outcome) {
	if c.collaborators.Notifier == nil {
		return
	}
	settings := &aggregates.Settings{}
	if c.collaborators.Settings != nil {
		s, err := c.collaborators.Settings.GetSettings(ctx)
		if err != nil {
			c.sinkErrorsCounter.With(prometheus.Labels{"sink": "settings"}).Inc()
			c.logger.Error(fmt.Sprintf("fail to load settings to notify about endpoint %s: %s", endpoint.ID, err.Error()))
			return
		}
		settings = s
	}
	if err := c.collaborators.Notifier.Notify(ctx, endpoint, outcome, settings); err != nil {
		c.sinkErrorsCounter.With(prometheus.Labels{"sink": "notification"}).Inc()
		c.logger.Error(fmt.Sprintf("fail to notify about endpoint %s: %s", endpoint.ID, err.Error()))
	}
}

// UnscheduleEndpoint stops future firings of the endpoint. Firings already
// running are not interrupted.
func (c *Controller) UnscheduleEndpoint(id string) {
	if c.registry.Remove(id) {
		c.logger.Info(fmt.Sprintf("endpoint %s unscheduled", id))
	}
}

// RescheduleEndpoint schedules the endpoint again from its stored definition.
// An endpoint which no longer exists is ignored.
func (c *Controller) RescheduleEndpoint(ctx context.Context, id string) error {
	endpoint, err := c.collaborators.Store.GetEndpoint(ctx, id)
	if err != nil {
		var corbiError *er.Error
		if errors.As(err, &corbiError) && corbiError.Type == er.NotFound {
			c.UnscheduleEndpoint(id)
			return nil
		}
		return err
	}
	c.ScheduleEndpoint(endpoint)
	return nil
}

// StopAll unschedules every endpoint. The controller can be started again.
func (c *Controller) StopAll() {
	count := c.registry.Clear()
	c.logger.Info(fmt.Sprintf("%d endpoints unscheduled", count))
}

// Shutdown stops every schedule for good and waits for running checks
func (c *Controller) Shutdown(ctx context.Context) error {
	c.logger.Info("stopping the scheduler")
	c.registry.Close()
	cronCtx := c.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	done := make(chan struct{})
	go func() {
		c.pool.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.logger.Info("scheduler stopped")
	return nil
}

// Scheduled reports whether the endpoint currently has a schedule
func (c *Controller) Scheduled(id string) bool {
	_, ok := c.registry.Get(id)
	return ok
}

func formatInt(i *int) string {
	if i == nil {
		return "<none>"
	}
	return fmt.Sprintf("%d", *i)
}

func formatString(s *string) string {
	if s == nil {
		return "<none>"
	}
	return fmt.Sprintf("%q", *s)
}
