package aggregates

import (
	"time"
)

type ScheduleMode string

const (
	ScheduleInterval ScheduleMode = "interval"
	ScheduleCron     ScheduleMode = "cron"
)

const (
	OperatorEquals    = "equals"
	OperatorNotEquals = "notEquals"
	OperatorContains  = "contains"
	OperatorExists    = "exists"
)

// Assertion validates a single dotted path of a JSON response body
type Assertion struct {
	Path     string `json:"path" validate:"required"`
	Operator string `json:"operator" validate:"required"`
	Value    any    `json:"value"`
}

type Endpoint struct {
	ID          string
	Name        string `validate:"required,max=255"`
	Description *string
	URL         string `validate:"required,url"`
	Method      string `validate:"required"`
	Headers     map[string]string
	Timeout     time.Duration `validate:"gt=0"`

	ExpectedStatusCodes   []int `validate:"required,min=1,dive,gte=100,lte=599"`
	ResponseTimeThreshold *time.Duration
	Assertions            []Assertion `validate:"dive"`

	ScheduleMode   ScheduleMode `validate:"required,oneof=interval cron"`
	CheckFrequency *int
	CronSchedule   *string

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Query struct {
	Active *bool
}
