package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	er "github.com/mcorbin/corbierror"
	"github.com/pulsewatch/server/pkg/client"
	"github.com/pulsewatch/server/pkg/endpoint"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

// ToEndpoint converts an endpoint definition received from a user
func ToEndpoint(definition client.EndpointDefinition) (*aggregates.Endpoint, error) {
	result := &aggregates.Endpoint{
		Name:                definition.Name,
		URL:                 definition.URL,
		Method:              definition.Method,
		Headers:             definition.Headers,
		ExpectedStatusCodes: definition.ExpectedStatusCodes,
		ScheduleMode:        aggregates.ScheduleMode(definition.ScheduleMode),
		CheckFrequency:      definition.CheckFrequency,
		Active:              true,
	}
	if definition.Active != nil {
		result.Active = *definition.Active
	}
	if definition.Description != "" {
		result.Description = &definition.Description
	}
	if definition.CronSchedule != "" {
		result.CronSchedule = &definition.CronSchedule
	}
	if definition.Timeout != "" {
		timeout, err := time.ParseDuration(definition.Timeout)
		if err != nil {
			return nil, er.Newf("Invalid timeout: %s", er.BadRequest, true, err.Error())
		}
		result.Timeout = timeout
	}
	if definition.ResponseTimeThreshold != "" {
		threshold, err := time.ParseDuration(definition.ResponseTimeThreshold)
		if err != nil {
			return nil, er.Newf("Invalid response time threshold: %s", er.BadRequest, true, err.Error())
		}
		result.ResponseTimeThreshold = &threshold
	}
	for _, a := range definition.Assertions {
		result.Assertions = append(result.Assertions, aggregates.Assertion{
			Path:     a.Path,
			Operator: a.Operator,
			Value:    a.Value,
		})
	}
	return result, nil
}

func toEndpointOutput(e aggregates.Endpoint) client.Endpoint {
	active := e.Active
	result := client.Endpoint{
		ID:        e.ID,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		EndpointDefinition: client.EndpointDefinition{
			Name:                e.Name,
			URL:                 e.URL,
			Method:              e.Method,
			Headers:             e.Headers,
			Timeout:             e.Timeout.String(),
			ExpectedStatusCodes: e.ExpectedStatusCodes,
			ScheduleMode:        string(e.ScheduleMode),
			CheckFrequency:      e.CheckFrequency,
			Active:              &active,
		},
	}
	if e.Description != nil {
		result.Description = *e.Description
	}
	if e.CronSchedule != nil {
		result.CronSchedule = *e.CronSchedule
	}
	if e.ResponseTimeThreshold != nil {
		result.ResponseTimeThreshold = e.ResponseTimeThreshold.String()
	}
	for _, a := range e.Assertions {
		result.Assertions = append(result.Assertions, client.Assertion{
			Path:     a.Path,
			Operator: a.Operator,
			Value:    a.Value,
		})
	}
	return result
}

func toEndpointsOutput(endpoints []*aggregates.Endpoint) []client.Endpoint {
	result := []client.Endpoint{}
	for i := range endpoints {
		e := *endpoints[i]
		result = append(result, toEndpointOutput(e))
	}
	return result
}

func (b *Builder) CreateEndpoint(ec echo.Context) error {
	var payload client.CreateEndpointInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}
	e, err := ToEndpoint(payload.EndpointDefinition)
	if err != nil {
		return err
	}
	endpoint.InitEndpoint(e)
	if err := b.endpoint.CreateEndpoint(ec.Request().Context(), e); err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, toEndpointOutput(*e))
}

func (b *Builder) UpdateEndpoint(ec echo.Context) error {
	var payload client.UpdateEndpointInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}
	e, err := ToEndpoint(payload.EndpointDefinition)
	if err != nil {
		return err
	}
	e.ID = payload.ID
	if err := b.endpoint.UpdateEndpoint(ec.Request().Context(), e); err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, NewResponse("Endpoint updated"))
}

func (b *Builder) DeleteEndpoint(ec echo.Context) error {
	var payload client.DeleteEndpointInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}
	if err := b.endpoint.DeleteEndpoint(ec.Request().Context(), payload.ID); err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, NewResponse("Endpoint deleted"))
}

func (b *Builder) GetEndpoint(ec echo.Context) error {
	var payload client.GetEndpointInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}
	e, err := b.endpoint.GetEndpoint(ec.Request().Context(), payload.ID)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, toEndpointOutput(*e))
}

func (b *Builder) ListEndpoints(ec echo.Context) error {
	var payload client.ListEndpointsInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}
	query := aggregates.Query{}
	if payload.Active != "" {
		active := payload.Active == "true"
		query.Active = &active
	}
	endpoints, err := b.endpoint.ListEndpoints(ec.Request().Context(), query)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, client.ListEndpointsOutput{
		Result: toEndpointsOutput(endpoints),
	})
}

func (b *Builder) CheckEndpoint(ec echo.Context) error {
	var payload client.CheckEndpointInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}
	outcome, err := b.endpoint.CheckNow(ec.Request().Context(), payload.ID)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, ToOutcome(*outcome))
}
