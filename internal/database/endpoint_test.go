package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var endpointRows = []string{"id", "name", "description", "url", "method", "headers", "timeout_ms", "expected_status_codes", "response_time_threshold_ms", "assertions", "schedule_mode", "check_frequency", "cron_schedule", "active", "created_at", "updated_at"}

func testEndpoint() *aggregates.Endpoint {
	frequency := 5
	threshold := 300 * time.Millisecond
	now := time.Now().UTC()
	return &aggregates.Endpoint{
		ID:                    "5c1b0b9e-3e0e-4d8e-9f59-4c4e64a5f0a1",
		Name:                  "api",
		URL:                   "https://api.example.com/health",
		Method:                "GET",
		Headers:               map[string]string{"Authorization": "Bearer x"},
		Timeout:               5 * time.Second,
		ExpectedStatusCodes:   []int{200, 204},
		ResponseTimeThreshold: &threshold,
		Assertions: []aggregates.Assertion{
			{Path: "status", Operator: "equals", Value: "ok"},
		},
		ScheduleMode:   aggregates.ScheduleInterval,
		CheckFrequency: &frequency,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreateEndpoint(t *testing.T) {
	db, mock := newTestDB(t)
	e := testEndpoint()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WithArgs("endpoint-api").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT endpoint.id, endpoint.name FROM endpoint WHERE name`).
		WithArgs("api").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectExec(`INSERT INTO endpoint`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := db.CreateEndpoint(context.Background(), e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEndpointConflict(t *testing.T) {
	db, mock := newTestDB(t)
	e := testEndpoint()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT endpoint.id, endpoint.name FROM endpoint WHERE name`).
		WithArgs("api").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("other", "api"))
	mock.ExpectRollback()

	err := db.CreateEndpoint(context.Background(), e)
	assert.ErrorContains(t, err, "already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEndpoint(t *testing.T) {
	db, mock := newTestDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT endpoint.id, endpoint.name, endpoint.description`).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(endpointRows).AddRow(
			"e1", "api", nil, "https://api.example.com", "GET", `{"X-Token":"a"}`, int64(2500), "[200]", int64(400),
			`[{"path":"data.0.id","operator":"exists","value":null}]`, "cron", nil, "*/5 * * * *", true, now, now))

	e, err := db.GetEndpoint(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "api", e.Name)
	assert.Equal(t, 2500*time.Millisecond, e.Timeout)
	assert.Equal(t, []int{200}, e.ExpectedStatusCodes)
	require.NotNil(t, e.ResponseTimeThreshold)
	assert.Equal(t, 400*time.Millisecond, *e.ResponseTimeThreshold)
	assert.Equal(t, "a", e.Headers["X-Token"])
	require.Len(t, e.Assertions, 1)
	assert.Equal(t, "data.0.id", e.Assertions[0].Path)
	assert.Equal(t, aggregates.ScheduleCron, e.ScheduleMode)
	assert.Nil(t, e.CheckFrequency)
	require.NotNil(t, e.CronSchedule)
	assert.Equal(t, "*/5 * * * *", *e.CronSchedule)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEndpointNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	mock.ExpectQuery(`SELECT endpoint.id`).WithArgs("missing").WillReturnRows(sqlmock.NewRows(endpointRows))

	_, err := db.GetEndpoint(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")

	mock.ExpectQuery(`SELECT endpoint.id`).WithArgs("broken").WillReturnError(errors.New("connection reset"))
	_, err = db.GetEndpoint(context.Background(), "broken")
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEndpoints(t *testing.T) {
	db, mock := newTestDB(t)
	now := time.Now().UTC()
	active := true
	mock.ExpectQuery(`FROM endpoint WHERE active`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(endpointRows).
			AddRow("e1", "a", nil, "https://a.example.com", "GET", nil, int64(1000), "[200]", nil, "[]", "interval", 5, nil, true, now, now).
			AddRow("e2", "b", "desc", "https://b.example.com", "HEAD", nil, int64(1000), "[200,301]", nil, "[]", "cron", nil, "0 * * * *", true, now, now))

	endpoints, err := db.ListEndpoints(context.Background(), aggregates.Query{Active: &active})
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, 5, *endpoints[0].CheckFrequency)
	assert.Nil(t, endpoints[0].Headers)
	assert.Equal(t, "desc", *endpoints[1].Description)
	assert.Equal(t, []int{200, 301}, endpoints[1].ExpectedStatusCodes)

	mock.ExpectQuery(`SELECT endpoint.id`).WillReturnRows(sqlmock.NewRows(endpointRows))
	endpoints, err = db.ListEndpoints(context.Background(), aggregates.Query{})
	require.NoError(t, err)
	assert.Empty(t, endpoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEndpoint(t *testing.T) {
	db, mock := newTestDB(t)
	e := testEndpoint()
	created := time.Now().Add(-time.Hour).UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(e.ID).
		WillReturnRows(sqlmock.NewRows(endpointRows).AddRow(
			e.ID, "old", nil, "https://old.example.com", "GET", nil, int64(1000), "[200]", nil, "[]", "interval", 1, nil, true, created, created))
	mock.ExpectQuery(`SELECT endpoint.id, endpoint.name FROM endpoint WHERE name`).
		WithArgs("api").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectExec(`UPDATE endpoint SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.UpdateEndpoint(context.Background(), e)
	assert.NoError(t, err)
	assert.Equal(t, created, e.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEndpointNameConflict(t *testing.T) {
	db, mock := newTestDB(t)
	e := testEndpoint()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(e.ID).
		WillReturnRows(sqlmock.NewRows(endpointRows).AddRow(
			e.ID, "old", nil, "https://old.example.com", "GET", nil, int64(1000), "[200]", nil, "[]", "interval", 1, nil, true, now, now))
	mock.ExpectQuery(`SELECT endpoint.id, endpoint.name FROM endpoint WHERE name`).
		WithArgs("api").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("another-id", "api"))
	mock.ExpectRollback()

	err := db.UpdateEndpoint(context.Background(), e)
	assert.ErrorContains(t, err, "already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEndpoint(t *testing.T) {
	db, mock := newTestDB(t)
	mock.ExpectExec(`DELETE FROM endpoint WHERE id`).WithArgs("e1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM endpoint WHERE id`).WithArgs("e1").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, db.DeleteEndpoint(context.Background(), "e1"))
	assert.ErrorContains(t, db.DeleteEndpoint(context.Background(), "e1"), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
