package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pulsewatch/server/internal/util"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

type outcome struct {
	ID         string
	EndpointID string    `db:"endpoint_id"`
	CheckedAt  time.Time `db:"checked_at"`
	LatencyMS  int64     `db:"latency_ms"`
	StatusCode *int      `db:"status_code"`
	Body       *string
	Healthy    bool
	Error      *string
}

type outcomeSummary struct {
	Success        int
	Failure        int
	AverageLatency float64 `db:"average_latency"`
}

func toOutcome(o *outcome) *aggregates.Outcome {
	return &aggregates.Outcome{
		ID:         o.ID,
		EndpointID: o.EndpointID,
		CheckedAt:  o.CheckedAt.UTC(),
		Latency:    time.Duration(o.LatencyMS) * time.Millisecond,
		StatusCode: o.StatusCode,
		Body:       o.Body,
		Healthy:    o.Healthy,
		Error:      o.Error,
	}
}

func (c *Database) CreateOutcome(ctx context.Context, o *aggregates.Outcome) error {
	if o.ID == "" {
		o.ID = util.NewUUID()
	}
	data := outcome{
		ID:         o.ID,
		EndpointID: o.EndpointID,
		CheckedAt:  o.CheckedAt,
		LatencyMS:  o.Latency.Milliseconds(),
		StatusCode: o.StatusCode,
		Body:       o.Body,
		Healthy:    o.Healthy,
		Error:      o.Error,
	}
	result, err := c.db.NamedExecContext(ctx, "INSERT INTO outcome (id, endpoint_id, checked_at, latency_ms, status_code, body, healthy, error) VALUES (:id, :endpoint_id, :checked_at, :latency_ms, :status_code, :body, :healthy, :error)", data)
	if err != nil {
		return fmt.Errorf("fail to record outcome for endpoint %s: %w", o.EndpointID, err)
	}
	return checkResult(result, 1)
}

// ListOutcomes returns the latest outcomes of an endpoint, most recent first
func (c *Database) ListOutcomes(ctx context.Context, endpointID string, limit int) ([]*aggregates.Outcome, error) {
	outcomes := []outcome{}
	err := c.db.SelectContext(ctx, &outcomes, "SELECT id, endpoint_id, checked_at, latency_ms, status_code, body, healthy, error FROM outcome WHERE endpoint_id=$1 ORDER BY checked_at DESC LIMIT $2", endpointID, limit)
	if err != nil {
		return nil, fmt.Errorf("fail to list outcomes: %w", err)
	}
	result := []*aggregates.Outcome{}
	for i := range outcomes {
		result = append(result, toOutcome(&outcomes[i]))
	}
	return result, nil
}

func (c *Database) SummarizeOutcomes(ctx context.Context, endpointID string, since time.Time) (*aggregates.Summary, error) {
	summary := outcomeSummary{}
	err := c.db.GetContext(ctx, &summary, "SELECT COUNT(*) FILTER (WHERE healthy) AS success, COUNT(*) FILTER (WHERE NOT healthy) AS failure, COALESCE(AVG(latency_ms), 0) AS average_latency FROM outcome WHERE endpoint_id=$1 AND checked_at >= $2", endpointID, since)
	if err != nil {
		return nil, fmt.Errorf("fail to summarize outcomes: %w", err)
	}
	return &aggregates.Summary{
		EndpointID:     endpointID,
		Success:        summary.Success,
		Failure:        summary.Failure,
		AverageLatency: time.Duration(summary.AverageLatency * float64(time.Millisecond)),
		Since:          since,
	}, nil
}

func (c *Database) DeleteOutcomesBefore(ctx context.Context, threshold time.Time) (int64, error) {
	result, err := c.db.ExecContext(ctx, "DELETE FROM outcome WHERE checked_at < $1", threshold)
	if err != nil {
		return 0, fmt.Errorf("fail to clean outcomes: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("fail to check affected row: %w", err)
	}
	return affected, nil
}
