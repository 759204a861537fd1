package postgres

import (
	"context"
	"fmt"
	"time"
)

// RunRecord is the audit row for one check run.
type RunRecord struct {
	// ID is the run's uuid, generated by the job.
	ID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is how long the run took end to end.
	Duration time.Duration

	// CoursesFetched is the number of courses returned by the portal.
	CoursesFetched int

	// AlertsEmitted is the number of change notifications produced.
	AlertsEmitted int

	// Succeeded reports whether the run completed without error.
	Succeeded bool

	// Error holds the failure message when Succeeded is false.
	Error string
}

// RunRepository records check runs for later inspection.
type RunRepository struct {
	conn *Connection
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(conn *Connection) *RunRepository {
	return &RunRepository{conn: conn}
}

// Record inserts one run row.
func (r *RunRepository) Record(ctx context.Context, record RunRecord) error {
	var errText *string
	if record.Error != "" {
		errText = &record.Error
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO check_runs (id, started_at, duration_ms, courses_fetched, alerts_emitted, succeeded, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		record.ID,
		record.StartedAt,
		record.Duration.Milliseconds(),
		record.CoursesFetched,
		record.AlertsEmitted,
		record.Succeeded,
		errText,
	)
	if err != nil {
		return fmt.Errorf("failed to record check run: %w", err)
	}
	return nil
}
