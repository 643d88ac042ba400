package endpoint

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	er "github.com/mcorbin/corbierror"
	"github.com/pulsewatch/server/internal/util"
	"github.com/pulsewatch/server/internal/validator"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
	"github.com/robfig/cron/v3"
)

const DefaultTimeout = 30 * time.Second

var operators = map[string]bool{
	aggregates.OperatorEquals:    true,
	aggregates.OperatorNotEquals: true,
	aggregates.OperatorContains:  true,
	aggregates.OperatorExists:    true,
}

var methods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

func InitEndpoint(endpoint *aggregates.Endpoint) {
	endpoint.ID = util.NewUUID()
	endpoint.CreatedAt = time.Now().UTC()
	endpoint.UpdatedAt = endpoint.CreatedAt
}

func setDefaults(endpoint *aggregates.Endpoint) {
	if endpoint.Method == "" {
		endpoint.Method = http.MethodGet
	}
	endpoint.Method = strings.ToUpper(endpoint.Method)
	if endpoint.Timeout == 0 {
		endpoint.Timeout = DefaultTimeout
	}
	if len(endpoint.ExpectedStatusCodes) == 0 {
		endpoint.ExpectedStatusCodes = []int{http.StatusOK}
	}
}

func validate(endpoint *aggregates.Endpoint) error {
	if err := validator.Validator.Struct(*endpoint); err != nil {
		return er.New(err.Error(), er.BadRequest, true)
	}
	if !methods[endpoint.Method] {
		return er.Newf("Invalid HTTP method %s", er.BadRequest, true, endpoint.Method)
	}
	if endpoint.ResponseTimeThreshold != nil && *endpoint.ResponseTimeThreshold <= 0 {
		return er.New("The response time threshold should be positive", er.BadRequest, true)
	}
	for _, a := range endpoint.Assertions {
		if !operators[a.Operator] {
			return er.Newf("Invalid assertion operator %s for path %s", er.BadRequest, true, a.Operator, a.Path)
		}
	}
	switch endpoint.ScheduleMode {
	case aggregates.ScheduleInterval:
		if endpoint.CheckFrequency == nil || *endpoint.CheckFrequency < 1 {
			return er.New("The check frequency should be at least 1 minute", er.BadRequest, true)
		}
	case aggregates.ScheduleCron:
		if endpoint.CronSchedule == nil || *endpoint.CronSchedule == "" {
			return er.New("A cron schedule is required", er.BadRequest, true)
		}
		if _, err := cron.ParseStandard(*endpoint.CronSchedule); err != nil {
			return er.Newf("Invalid cron schedule %s: %s", er.BadRequest, true, *endpoint.CronSchedule, err.Error())
		}
	}
	return nil
}

func (s *Service) CreateEndpoint(ctx context.Context, endpoint *aggregates.Endpoint) error {
	s.logger.Info(fmt.Sprintf("creating endpoint %s", endpoint.Name))
	setDefaults(endpoint)
	if err := validate(endpoint); err != nil {
		return err
	}
	if err := s.store.CreateEndpoint(ctx, endpoint); err != nil {
		return err
	}
	return s.scheduler.RescheduleEndpoint(ctx, endpoint.ID)
}

func (s *Service) UpdateEndpoint(ctx context.Context, endpoint *aggregates.Endpoint) error {
	s.logger.Info(fmt.Sprintf("updating endpoint %s", endpoint.ID))
	setDefaults(endpoint)
	endpoint.UpdatedAt = time.Now().UTC()
	if err := validate(endpoint); err != nil {
		return err
	}
	if err := s.store.UpdateEndpoint(ctx, endpoint); err != nil {
		return err
	}
	return s.scheduler.RescheduleEndpoint(ctx, endpoint.ID)
}

func (s *Service) GetEndpoint(ctx context.Context, id string) (*aggregates.Endpoint, error) {
	return s.store.GetEndpoint(ctx, id)
}

func (s *Service) DeleteEndpoint(ctx context.Context, id string) error {
	s.logger.Info(fmt.Sprintf("deleting endpoint %s", id))
	if err := s.store.DeleteEndpoint(ctx, id); err != nil {
		return err
	}
	s.scheduler.UnscheduleEndpoint(id)
	return nil
}

func (s *Service) ListEndpoints(ctx context.Context, query aggregates.Query) ([]*aggregates.Endpoint, error) {
	return s.store.ListEndpoints(ctx, query)
}

func (s *Service) CountEndpoints(ctx context.Context) (int, error) {
	return s.store.CountEndpoints(ctx)
}

// CheckNow runs a check of the endpoint right away, outside of its schedule
func (s *Service) CheckNow(ctx context.Context, id string) (*aggregates.Outcome, error) {
	endpoint, err := s.store.GetEndpoint(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info(fmt.Sprintf("manual check of endpoint %s", id))
	outcome := s.scheduler.CheckNow(ctx, endpoint)
	return &outcome, nil
}
