package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	er "github.com/mcorbin/corbierror"
	"github.com/pulsewatch/server/pkg/client"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

func ToOutcome(outcome aggregates.Outcome) client.Outcome {
	return client.Outcome{
		ID:         outcome.ID,
		EndpointID: outcome.EndpointID,
		CheckedAt:  outcome.CheckedAt,
		Latency:    outcome.Latency.String(),
		StatusCode: outcome.StatusCode,
		Body:       outcome.Body,
		Healthy:    outcome.Healthy,
		Error:      outcome.Error,
	}
}

func (b *Builder) ListOutcomes(ec echo.Context) error {
	var payload client.ListOutcomesInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}
	ctx := ec.Request().Context()
	if _, err := b.endpoint.GetEndpoint(ctx, payload.ID); err != nil {
		return err
	}
	outcomes, err := b.outcome.ListOutcomes(ctx, payload.ID, payload.Limit)
	if err != nil {
		return err
	}
	result := client.ListOutcomesOutput{
		Result: []client.Outcome{},
	}
	for _, o := range outcomes {
		result.Result = append(result.Result, ToOutcome(*o))
	}
	return ec.JSON(http.StatusOK, result)
}

func (b *Builder) GetSummary(ec echo.Context) error {
	var payload client.GetSummaryInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}
	var window time.Duration
	if payload.Window != "" {
		var err error
		window, err = time.ParseDuration(payload.Window)
		if err != nil {
			return er.Newf("Invalid window: %s", er.BadRequest, true, err.Error())
		}
	}
	ctx := ec.Request().Context()
	if _, err := b.endpoint.GetEndpoint(ctx, payload.ID); err != nil {
		return err
	}
	summary, err := b.outcome.Summary(ctx, payload.ID, window)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, client.Summary{
		EndpointID:     summary.EndpointID,
		Success:        summary.Success,
		Failure:        summary.Failure,
		Uptime:         summary.Uptime(),
		AverageLatency: summary.AverageLatency.String(),
		Since:          summary.Since,
	})
}
