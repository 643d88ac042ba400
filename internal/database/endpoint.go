package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	er "github.com/mcorbin/corbierror"
	"github.com/pkg/errors"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

type endpoint struct {
	ID                      string
	Name                    string
	Description             *string
	URL                     string
	Method                  string
	Headers                 *string
	TimeoutMS               int64  `db:"timeout_ms"`
	ExpectedStatusCodes     string `db:"expected_status_codes"`
	ResponseTimeThresholdMS *int64 `db:"response_time_threshold_ms"`
	Assertions              string
	ScheduleMode            string    `db:"schedule_mode"`
	CheckFrequency          *int      `db:"check_frequency"`
	CronSchedule            *string   `db:"cron_schedule"`
	Active                  bool
	CreatedAt               time.Time `db:"created_at"`
	UpdatedAt               time.Time `db:"updated_at"`
}

const endpointColumns = "endpoint.id, endpoint.name, endpoint.description, endpoint.url, endpoint.method, endpoint.headers, endpoint.timeout_ms, endpoint.expected_status_codes, endpoint.response_time_threshold_ms, endpoint.assertions, endpoint.schedule_mode, endpoint.check_frequency, endpoint.cron_schedule, endpoint.active, endpoint.created_at, endpoint.updated_at"

func toEndpoint(e *endpoint) (*aggregates.Endpoint, error) {
	headers, err := fromJSON[map[string]string](e.Headers)
	if err != nil {
		return nil, err
	}
	statusCodes, err := fromJSON[[]int](&e.ExpectedStatusCodes)
	if err != nil {
		return nil, err
	}
	assertions, err := fromJSON[[]aggregates.Assertion](&e.Assertions)
	if err != nil {
		return nil, err
	}
	result := &aggregates.Endpoint{
		ID:                  e.ID,
		Name:                e.Name,
		Description:         e.Description,
		URL:                 e.URL,
		Method:              e.Method,
		Headers:             headers,
		Timeout:             time.Duration(e.TimeoutMS) * time.Millisecond,
		ExpectedStatusCodes: statusCodes,
		Assertions:          assertions,
		ScheduleMode:        aggregates.ScheduleMode(e.ScheduleMode),
		CheckFrequency:      e.CheckFrequency,
		CronSchedule:        e.CronSchedule,
		Active:              e.Active,
		CreatedAt:           e.CreatedAt.UTC(),
		UpdatedAt:           e.UpdatedAt.UTC(),
	}
	if e.ResponseTimeThresholdMS != nil {
		threshold := time.Duration(*e.ResponseTimeThresholdMS) * time.Millisecond
		result.ResponseTimeThreshold = &threshold
	}
	return result, nil
}

func fromEndpoint(e *aggregates.Endpoint) (*endpoint, error) {
	var headers *string
	var err error
	if e.Headers != nil {
		headers, err = toJSON(e.Headers)
		if err != nil {
			return nil, err
		}
	}
	statusCodes := e.ExpectedStatusCodes
	if statusCodes == nil {
		statusCodes = []int{}
	}
	codes, err := toJSON(statusCodes)
	if err != nil {
		return nil, err
	}
	assertionsList := e.Assertions
	if assertionsList == nil {
		assertionsList = []aggregates.Assertion{}
	}
	assertions, err := toJSON(assertionsList)
	if err != nil {
		return nil, err
	}
	result := &endpoint{
		ID:                  e.ID,
		Name:                e.Name,
		Description:         e.Description,
		URL:                 e.URL,
		Method:              e.Method,
		Headers:             headers,
		TimeoutMS:           e.Timeout.Milliseconds(),
		ExpectedStatusCodes: *codes,
		Assertions:          *assertions,
		ScheduleMode:        string(e.ScheduleMode),
		CheckFrequency:      e.CheckFrequency,
		CronSchedule:        e.CronSchedule,
		Active:              e.Active,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
	if e.ResponseTimeThreshold != nil {
		threshold := e.ResponseTimeThreshold.Milliseconds()
		result.ResponseTimeThresholdMS = &threshold
	}
	return result, nil
}

func (c *Database) CreateEndpoint(ctx context.Context, e *aggregates.Endpoint) error {
	tx := c.db.MustBeginTx(ctx, nil)
	shouldRollback := true
	defer func() {
		if shouldRollback {
			err := tx.Rollback()
			if err != nil {
				c.Logger.Error(err.Error())
			}
		}
	}()
	_, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", fmt.Sprintf("endpoint-%s", e.Name))
	if err != nil {
		return err
	}
	checkExists := endpoint{}
	err = tx.GetContext(ctx, &checkExists, "SELECT endpoint.id, endpoint.name FROM endpoint WHERE name=$1", e.Name)
	if err != nil {
		if err != sql.ErrNoRows {
			return errors.Wrapf(err, "fail to get endpoint %s", e.Name)
		}
	} else {
		return er.Newf("an endpoint named %s already exists", er.Conflict, true, e.Name)
	}
	dbEndpoint, err := fromEndpoint(e)
	if err != nil {
		return err
	}
	result, err := tx.NamedExecContext(ctx, "INSERT INTO endpoint (id, name, description, url, method, headers, timeout_ms, expected_status_codes, response_time_threshold_ms, assertions, schedule_mode, check_frequency, cron_schedule, active, created_at, updated_at) VALUES (:id, :name, :description, :url, :method, :headers, :timeout_ms, :expected_status_codes, :response_time_threshold_ms, :assertions, :schedule_mode, :check_frequency, :cron_schedule, :active, :created_at, :updated_at)", dbEndpoint)
	if err != nil {
		return errors.Wrapf(err, "fail to create endpoint %s", e.Name)
	}
	err = checkResult(result, 1)
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return err
	}
	shouldRollback = false
	return nil
}

func (c *Database) GetEndpoint(ctx context.Context, id string) (*aggregates.Endpoint, error) {
	e := endpoint{}
	err := c.db.GetContext(ctx, &e, fmt.Sprintf("SELECT %s FROM endpoint WHERE id=$1", endpointColumns), id)
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, errors.Wrapf(err, "fail to get endpoint %s", id)
		}
		return nil, er.New("endpoint not found", er.NotFound, true)
	}
	return toEndpoint(&e)
}

func (c *Database) getEndpointTX(ctx context.Context, tx *sqlx.Tx, id string) (*endpoint, error) {
	e := endpoint{}
	err := tx.GetContext(ctx, &e, fmt.Sprintf("SELECT %s FROM endpoint WHERE id=$1 FOR UPDATE", endpointColumns), id)
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, errors.Wrapf(err, "fail to get endpoint %s", id)
		}
		return nil, er.New("endpoint not found", er.NotFound, true)
	}
	return &e, nil
}

func (c *Database) ListEndpoints(ctx context.Context, query aggregates.Query) ([]*aggregates.Endpoint, error) {
	endpoints := []endpoint{}
	baseQuery := fmt.Sprintf("SELECT %s FROM endpoint", endpointColumns)
	args := []any{}
	if query.Active != nil {
		baseQuery = fmt.Sprintf("%s WHERE active=$1", baseQuery)
		args = append(args, *query.Active)
	}
	err := c.db.SelectContext(ctx, &endpoints, baseQuery+" ORDER BY created_at", args...)
	if err != nil {
		return nil, errors.Wrap(err, "fail to list endpoints")
	}
	result := []*aggregates.Endpoint{}
	for i := range endpoints {
		e, err := toEndpoint(&endpoints[i])
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

func (c *Database) UpdateEndpoint(ctx context.Context, update *aggregates.Endpoint) error {
	tx := c.db.MustBeginTx(ctx, nil)
	shouldRollback := true
	defer func() {
		if shouldRollback {
			err := tx.Rollback()
			if err != nil {
				c.Logger.Error(err.Error())
			}
		}
	}()
	current, err := c.getEndpointTX(ctx, tx, update.ID)
	if err != nil {
		return err
	}
	checkExists := endpoint{}
	err = tx.GetContext(ctx, &checkExists, "SELECT endpoint.id, endpoint.name FROM endpoint WHERE name=$1", update.Name)
	if err != nil {
		if err != sql.ErrNoRows {
			return errors.Wrapf(err, "fail to get endpoint %s", update.Name)
		}
	} else if checkExists.ID != update.ID {
		return er.Newf("an endpoint named %s already exists", er.Conflict, true, update.Name)
	}
	update.CreatedAt = current.CreatedAt.UTC()
	dbEndpoint, err := fromEndpoint(update)
	if err != nil {
		return err
	}
	result, err := tx.NamedExecContext(ctx, "UPDATE endpoint SET name=:name, description=:description, url=:url, method=:method, headers=:headers, timeout_ms=:timeout_ms, expected_status_codes=:expected_status_codes, response_time_threshold_ms=:response_time_threshold_ms, assertions=:assertions, schedule_mode=:schedule_mode, check_frequency=:check_frequency, cron_schedule=:cron_schedule, active=:active, updated_at=:updated_at WHERE id=:id", dbEndpoint)
	if err != nil {
		return errors.Wrapf(err, "fail to update endpoint %s", update.ID)
	}
	err = checkResult(result, 1)
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return err
	}
	shouldRollback = false
	return nil
}

func (c *Database) DeleteEndpoint(ctx context.Context, id string) error {
	result, err := c.db.ExecContext(ctx, "DELETE FROM endpoint WHERE id=$1", id)
	if err != nil {
		return errors.Wrap(err, "fail to delete endpoint")
	}
	return checkResult(result, 1)
}

func (c *Database) CountEndpoints(ctx context.Context) (int, error) {
	var count int
	row := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM endpoint")
	err := row.Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
