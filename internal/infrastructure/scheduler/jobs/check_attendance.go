// Package jobs contains the scheduled jobs of the attendance monitor.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rollcall-hub/attendance-monitor/internal/domain/attendance"
	"github.com/rollcall-hub/attendance-monitor/internal/infrastructure/persistence/postgres"
	"github.com/rollcall-hub/attendance-monitor/pkg/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK ATTENDANCE JOB
// ══════════════════════════════════════════════════════════════════════════════

// CourseSource supplies the current per-course counters. Implemented by the
// portal client.
type CourseSource interface {
	Authenticate(ctx context.Context, email, password string) error
	GetCourses(ctx context.Context) ([]attendance.Course, error)
}

// SnapshotStore persists the baseline between runs. Implemented by the
// postgres repository, optionally wrapped in the Redis cache.
type SnapshotStore interface {
	Load(ctx context.Context) (attendance.Snapshot, error)
	Save(ctx context.Context, snapshot attendance.Snapshot) error
}

// Dispatcher delivers change notifications. Implemented by the
// notification service; it swallows per-message failures and reports how
// many messages went out.
type Dispatcher interface {
	Dispatch(ctx context.Context, notifications []attendance.Notification) int
}

// RunRecorder keeps the audit trail of check runs.
type RunRecorder interface {
	Record(ctx context.Context, record postgres.RunRecord) error
}

// CheckAttendanceConfig contains configuration for the job.
type CheckAttendanceConfig struct {
	// PortalEmail and PortalPassword are the portal credentials. The job
	// authenticates on every run; portal sessions are short-lived.
	PortalEmail    string
	PortalPassword string
}

// CheckAttendanceJob is the monitor's one periodic job: fetch the current
// counters, diff them against the persisted snapshot, notify about every
// change, and persist the new baseline.
type CheckAttendanceJob struct {
	source     CourseSource
	store      SnapshotStore
	dispatcher Dispatcher
	runs       RunRecorder
	logger     *slog.Logger
	metrics    *metrics.Manager
	config     CheckAttendanceConfig
}

// NewCheckAttendanceJob creates the job. runs and metrics may be nil when
// auditing or metrics are disabled.
func NewCheckAttendanceJob(
	source CourseSource,
	store SnapshotStore,
	dispatcher Dispatcher,
	runs RunRecorder,
	logger *slog.Logger,
	m *metrics.Manager,
	config CheckAttendanceConfig,
) *CheckAttendanceJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckAttendanceJob{
		source:     source,
		store:      store,
		dispatcher: dispatcher,
		runs:       runs,
		logger:     logger,
		metrics:    m,
		config:     config,
	}
}

// Name returns the unique job name.
func (j *CheckAttendanceJob) Name() string {
	return "check_attendance"
}

// Description returns a human-readable description.
func (j *CheckAttendanceJob) Description() string {
	return "Fetches per-course attendance counters, diffs them against the last snapshot and notifies about changes"
}

// RunStats summarizes one execution.
type RunStats struct {
	RunID          string
	CoursesFetched int
	Changed        int
	Dispatched     int
	Persisted      bool
}

// Run executes one check. The failure boundaries are deliberate:
//
//   - authentication or fetch failure aborts the run (there is nothing to
//     diff);
//   - a snapshot load failure degrades to an empty snapshot, which makes
//     every course look first-seen rather than losing the run;
//   - dispatch failures are swallowed inside the dispatcher;
//   - the snapshot is persisted only when the fetch returned at least one
//     course, so a portal hiccup that returns nothing cannot wipe the
//     baseline; a persist failure is logged, the next run simply re-diffs
//     against the older baseline.
func (j *CheckAttendanceJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	stats, err := j.execute(ctx)
	j.record(ctx, stats, startedAt, err)

	if j.metrics != nil {
		j.metrics.RecordRun(time.Since(startedAt), stats.CoursesFetched, err != nil)
	}

	if err != nil {
		return err
	}

	j.logger.Info("attendance check completed",
		"run_id", stats.RunID,
		"courses", stats.CoursesFetched,
		"changed", stats.Changed,
		"dispatched", stats.Dispatched,
		"persisted", stats.Persisted,
		"duration", time.Since(startedAt).String(),
	)
	return nil
}

func (j *CheckAttendanceJob) execute(ctx context.Context) (RunStats, error) {
	stats := RunStats{RunID: uuid.New().String()}

	if err := j.source.Authenticate(ctx, j.config.PortalEmail, j.config.PortalPassword); err != nil {
		return stats, fmt.Errorf("authenticate: %w", err)
	}

	courses, err := j.source.GetCourses(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch courses: %w", err)
	}
	stats.CoursesFetched = len(courses)

	prev, err := j.store.Load(ctx)
	if err != nil {
		j.logger.Warn("snapshot load failed, treating all courses as first-seen",
			"run_id", stats.RunID, "error", err)
		prev = attendance.Snapshot{}
	}

	next, notifications := attendance.Diff(prev, courses)
	stats.Changed = len(notifications)

	stats.Dispatched = j.dispatcher.Dispatch(ctx, notifications)

	if len(courses) > 0 {
		if err := j.store.Save(ctx, next); err != nil {
			j.logger.Error("snapshot save failed, keeping previous baseline",
				"run_id", stats.RunID, "error", err)
		} else {
			stats.Persisted = true
		}
	} else {
		j.logger.Info("empty course list, skipping snapshot save", "run_id", stats.RunID)
	}

	return stats, nil
}

// record writes the audit row. Auditing is best-effort: a failed insert is
// logged and never turns a successful check into a failed one.
func (j *CheckAttendanceJob) record(ctx context.Context, stats RunStats, startedAt time.Time, runErr error) {
	if j.runs == nil {
		return
	}

	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}

	err := j.runs.Record(ctx, postgres.RunRecord{
		ID:             stats.RunID,
		StartedAt:      startedAt,
		Duration:       time.Since(startedAt),
		CoursesFetched: stats.CoursesFetched,
		AlertsEmitted:  stats.Changed,
		Succeeded:      runErr == nil,
		Error:          errText,
	})
	if err != nil {
		j.logger.Warn("failed to record check run", "run_id", stats.RunID, "error", err)
	}
}
