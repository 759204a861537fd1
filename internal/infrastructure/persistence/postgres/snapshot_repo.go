package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rollcall-hub/attendance-monitor/internal/domain/attendance"
)

// SnapshotRepository persists the attendance snapshot between runs.
type SnapshotRepository struct {
	conn *Connection
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(conn *Connection) *SnapshotRepository {
	return &SnapshotRepository{conn: conn}
}

// Load reads the last persisted snapshot. An empty database yields an empty
// snapshot, not an error; callers are expected to degrade read failures to
// an empty snapshot as well, which simply makes every course look first-seen.
func (r *SnapshotRepository) Load(ctx context.Context) (attendance.Snapshot, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT course_id, present, total
		FROM attendance_snapshot
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := attendance.Snapshot{}
	for rows.Next() {
		var courseID string
		var counters attendance.Counters
		if err := rows.Scan(&courseID, &counters.Present, &counters.Total); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshot[courseID] = counters
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot rows: %w", err)
	}

	return snapshot, nil
}

// Save replaces the stored snapshot with the given one in a single
// transaction, so a failed run can never leave a half-written baseline.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot attendance.Snapshot) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM attendance_snapshot`); err != nil {
			return fmt.Errorf("failed to clear snapshot: %w", err)
		}

		for courseID, counters := range snapshot {
			_, err := tx.Exec(ctx, `
				INSERT INTO attendance_snapshot (course_id, present, total, updated_at)
				VALUES ($1, $2, $3, NOW())
			`, courseID, counters.Present, counters.Total)
			if err != nil {
				return fmt.Errorf("failed to insert snapshot row %s: %w", courseID, err)
			}
		}

		return nil
	})
}
