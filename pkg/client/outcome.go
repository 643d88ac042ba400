package client

import "time"

type ListOutcomesInput struct {
	ID    string `json:"-" param:"id" validate:"required,uuid"`
	Limit int    `query:"limit" validate:"gte=0"`
}

type GetSummaryInput struct {
	ID string `json:"-" param:"id" validate:"required,uuid"`
	// Go duration, 24h when empty
	Window string `query:"window"`
}

type Outcome struct {
	ID         string    `json:"id,omitempty"`
	EndpointID string    `json:"endpoint-id"`
	CheckedAt  time.Time `json:"checked-at"`
	Latency    string    `json:"latency"`
	StatusCode *int      `json:"status-code,omitempty"`
	Body       *string   `json:"body,omitempty"`
	Healthy    bool      `json:"healthy"`
	Error      *string   `json:"error,omitempty"`
}

type ListOutcomesOutput struct {
	Result []Outcome `json:"result"`
}

type Summary struct {
	EndpointID     string    `json:"endpoint-id"`
	Success        int       `json:"success"`
	Failure        int       `json:"failure"`
	Uptime         float64   `json:"uptime"`
	AverageLatency string    `json:"average-latency"`
	Since          time.Time `json:"since"`
}
