package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts its runs" }

func (j *countingJob) Run(_ context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestRegister_RejectsNilAndDuplicates(t *testing.T) {
	s := New(DefaultConfig())
	job := &countingJob{name: "check"}
	schedule := NewIntervalSchedule(time.Minute)

	assert.ErrorIs(t, s.Register(nil, schedule), ErrNilJob)
	assert.ErrorIs(t, s.Register(job, nil), ErrNilSchedule)

	require.NoError(t, s.Register(job, schedule))
	assert.ErrorIs(t, s.Register(job, schedule), ErrJobAlreadyExists)
}

func TestStartStop_Lifecycle(t *testing.T) {
	s := New(DefaultConfig())
	require.NoError(t, s.Register(&countingJob{name: "check"}, NewIntervalSchedule(time.Hour)))

	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestRunNow_ExecutesImmediately(t *testing.T) {
	s := New(DefaultConfig())
	job := &countingJob{name: "check"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "check")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "check", result.JobName)
	assert.Equal(t, int64(1), job.runs.Load())

	last, ok := s.LastResult("check")
	require.True(t, ok)
	assert.Equal(t, result.JobName, last.JobName)
}

func TestRunNow_PropagatesJobError(t *testing.T) {
	s := New(DefaultConfig())
	jobErr := errors.New("portal unreachable")
	require.NoError(t, s.Register(&countingJob{name: "check", err: jobErr}, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "check")

	assert.ErrorIs(t, err, jobErr)
	assert.False(t, result.Success)
}

func TestRunNow_UnknownJob(t *testing.T) {
	s := New(DefaultConfig())

	_, err := s.RunNow(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSchedulerLoop_RunsDueJobs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = 10 * time.Millisecond

	s := New(cfg)
	job := &countingJob{name: "check"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(20*time.Millisecond)))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())
}

func TestIntervalSchedule(t *testing.T) {
	schedule := NewIntervalSchedule(30 * time.Minute)
	now := time.Now()

	assert.Equal(t, now.Add(30*time.Minute), schedule.Next(now))
	assert.Equal(t, "@every 30m0s", schedule.String())
}
