package client

import "time"

type Assertion struct {
	Path     string `json:"path" yaml:"path" validate:"required"`
	Operator string `json:"operator" yaml:"operator" validate:"required"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
}

type EndpointDefinition struct {
	Name        string            `json:"name" yaml:"name" validate:"required,max=255"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string            `json:"url" yaml:"url" validate:"required,url"`
	Method      string            `json:"method,omitempty" yaml:"method,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Go duration, for example 5s
	Timeout               string      `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	ExpectedStatusCodes   []int       `json:"expected-status-codes,omitempty" yaml:"expected-status-codes,omitempty"`
	ResponseTimeThreshold string      `json:"response-time-threshold,omitempty" yaml:"response-time-threshold,omitempty"`
	Assertions            []Assertion `json:"assertions,omitempty" yaml:"assertions,omitempty" validate:"dive"`
	ScheduleMode          string      `json:"schedule-mode" yaml:"schedule-mode" validate:"required,oneof=interval cron"`
	// minutes between two checks in interval mode
	CheckFrequency *int   `json:"check-frequency,omitempty" yaml:"check-frequency,omitempty"`
	CronSchedule   string `json:"cron-schedule,omitempty" yaml:"cron-schedule,omitempty"`
	// true when omitted
	Active *bool `json:"active,omitempty" yaml:"active,omitempty"`
}

type CreateEndpointInput struct {
	EndpointDefinition
}

type UpdateEndpointInput struct {
	ID string `json:"-" param:"id" validate:"required,uuid"`
	EndpointDefinition
}

type GetEndpointInput struct {
	ID string `json:"-" param:"id" validate:"required,uuid"`
}

type DeleteEndpointInput struct {
	ID string `json:"-" param:"id" validate:"required,uuid"`
}

type CheckEndpointInput struct {
	ID string `json:"-" param:"id" validate:"required,uuid"`
}

type ListEndpointsInput struct {
	Active string `query:"active" validate:"omitempty,oneof=true false"`
}

type Endpoint struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created-at"`
	UpdatedAt time.Time `json:"updated-at"`
	EndpointDefinition
}

type ListEndpointsOutput struct {
	Result []Endpoint `json:"result"`
}
