package aggregates

import "time"

// Outcome is the result of one check execution
type Outcome struct {
	ID         string
	EndpointID string
	CheckedAt  time.Time
	Latency    time.Duration
	// nil on transport failures
	StatusCode *int
	Body       *string
	Healthy    bool
	Error      *string
}

type Summary struct {
	EndpointID     string
	Success        int
	Failure        int
	AverageLatency time.Duration
	Since          time.Time
}

// Uptime returns the ratio of healthy outcomes, 0 when nothing was recorded
func (s Summary) Uptime() float64 {
	total := s.Success + s.Failure
	if total == 0 {
		return 0
	}
	return float64(s.Success) / float64(total)
}
