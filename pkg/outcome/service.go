package outcome

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

type Store interface {
	ListOutcomes(ctx context.Context, endpointID string, limit int) ([]*aggregates.Outcome, error)
	SummarizeOutcomes(ctx context.Context, endpointID string, since time.Time) (*aggregates.Summary, error)
	DeleteOutcomesBefore(ctx context.Context, threshold time.Time) (int64, error)
}

type Configuration struct {
	// outcomes older than this number of days are removed
	Days     uint
	Interval time.Duration
}

func (c *Configuration) setDefaults() {
	if c.Days == 0 {
		c.Days = 30
	}
	if c.Interval == 0 {
		c.Interval = time.Hour
	}
}

type Service struct {
	logger                   *slog.Logger
	store                    Store
	config                   Configuration
	cleanupExecutionsCounter *prometheus.CounterVec
	wg                       sync.WaitGroup
	lock                     sync.Mutex
	started                  bool
	stopped                  bool
	stop                     chan struct{}
	ticker                   *time.Ticker
	now                      func() time.Time
}

func New(logger *slog.Logger, store Store, config Configuration, registry *prometheus.Registry) (*Service, error) {
	config.setDefaults()
	cleanupExecutionsCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outcome_cleanup_executions_total",
			Help: "Count the number of executions of the job cleaning old outcomes",
		},
		[]string{"status"})
	err := registry.Register(cleanupExecutionsCounter)
	if err != nil {
		return nil, err
	}
	return &Service{
		stop:                     make(chan struct{}),
		store:                    store,
		config:                   config,
		logger:                   logger,
		cleanupExecutionsCounter: cleanupExecutionsCounter,
		now:                      time.Now,
	}, nil
}

// Start launches the retention loop. It does nothing if the loop already
// runs or was stopped.
func (s *Service) Start() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.stop:
				return
			case <-s.ticker.C:
				s.logger.Debug("cleaning expired outcomes")
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				_, _ = s.CleanOutcomes(ctx)
				cancel()
			}
		}
	}()
}

// Stop waits for the retention loop to exit. It can be called several times,
// and without a previous Start.
func (s *Service) Stop() {
	s.lock.Lock()
	if s.stopped {
		s.lock.Unlock()
		return
	}
	s.stopped = true
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stop)
	s.lock.Unlock()
	s.wg.Wait()
}
