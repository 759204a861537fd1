package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall-hub/attendance-monitor/internal/domain/attendance"
	"github.com/rollcall-hub/attendance-monitor/internal/infrastructure/persistence/postgres"
)

type fakeSource struct {
	authErr    error
	courses    []attendance.Course
	fetchErr   error
	authCalled bool
}

func (f *fakeSource) Authenticate(_ context.Context, _, _ string) error {
	f.authCalled = true
	return f.authErr
}

func (f *fakeSource) GetCourses(_ context.Context) ([]attendance.Course, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.courses, nil
}

type fakeStore struct {
	snapshot attendance.Snapshot
	loadErr  error
	saveErr  error
	saved    *attendance.Snapshot
}

func (f *fakeStore) Load(_ context.Context) (attendance.Snapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.snapshot, nil
}

func (f *fakeStore) Save(_ context.Context, snapshot attendance.Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &snapshot
	return nil
}

type fakeDispatcher struct {
	received []attendance.Notification
}

func (f *fakeDispatcher) Dispatch(_ context.Context, notifications []attendance.Notification) int {
	f.received = append(f.received, notifications...)
	return len(notifications)
}

type fakeRecorder struct {
	records []postgres.RunRecord
}

func (f *fakeRecorder) Record(_ context.Context, record postgres.RunRecord) error {
	f.records = append(f.records, record)
	return nil
}

func newJob(source *fakeSource, store *fakeStore, dispatcher *fakeDispatcher, recorder *fakeRecorder) *CheckAttendanceJob {
	return NewCheckAttendanceJob(source, store, dispatcher, recorder, slog.Default(), nil, CheckAttendanceConfig{
		PortalEmail:    "student@example.com",
		PortalPassword: "secret",
	})
}

func TestRun_DiffsAndPersists(t *testing.T) {
	source := &fakeSource{courses: []attendance.Course{
		{ID: "c1", Label: "Algorithms", Present: 5, Total: 11},
		{ID: "c2", Label: "Databases", Present: 9, Total: 10},
	}}
	store := &fakeStore{snapshot: attendance.Snapshot{
		"c1": {Present: 5, Total: 10},
		"c2": {Present: 9, Total: 10},
	}}
	dispatcher := &fakeDispatcher{}
	recorder := &fakeRecorder{}

	err := newJob(source, store, dispatcher, recorder).Run(context.Background())

	require.NoError(t, err)
	assert.True(t, source.authCalled)

	// c1 missed a lecture, c2 is unchanged.
	require.Len(t, dispatcher.received, 1)
	assert.Equal(t, "c1", dispatcher.received[0].Course.ID)
	assert.Equal(t, attendance.StatusAbsent, dispatcher.received[0].Status)

	require.NotNil(t, store.saved)
	assert.Equal(t, attendance.Counters{Present: 5, Total: 11}, (*store.saved)["c1"])
	assert.Equal(t, attendance.Counters{Present: 9, Total: 10}, (*store.saved)["c2"])

	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.True(t, record.Succeeded)
	assert.Equal(t, 2, record.CoursesFetched)
	assert.Equal(t, 1, record.AlertsEmitted)
	assert.NotEmpty(t, record.ID)
}

func TestRun_AuthFailureAbortsBeforeFetch(t *testing.T) {
	source := &fakeSource{authErr: errors.New("bad credentials")}
	store := &fakeStore{}
	dispatcher := &fakeDispatcher{}
	recorder := &fakeRecorder{}

	err := newJob(source, store, dispatcher, recorder).Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, store.saved)
	assert.Empty(t, dispatcher.received)

	require.Len(t, recorder.records, 1)
	assert.False(t, recorder.records[0].Succeeded)
	assert.Contains(t, recorder.records[0].Error, "bad credentials")
}

func TestRun_FetchFailureAbortsRun(t *testing.T) {
	source := &fakeSource{fetchErr: errors.New("portal down")}
	store := &fakeStore{snapshot: attendance.Snapshot{"c1": {Present: 5, Total: 10}}}
	dispatcher := &fakeDispatcher{}

	err := newJob(source, store, dispatcher, &fakeRecorder{}).Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, store.saved)
	assert.Empty(t, dispatcher.received)
}

func TestRun_LoadFailureDegradesToFirstSeen(t *testing.T) {
	source := &fakeSource{courses: []attendance.Course{
		{ID: "c1", Label: "Algorithms", Present: 5, Total: 10},
	}}
	store := &fakeStore{loadErr: errors.New("connection reset")}
	dispatcher := &fakeDispatcher{}

	err := newJob(source, store, dispatcher, &fakeRecorder{}).Run(context.Background())

	require.NoError(t, err)

	// With no baseline the course reads as first-seen attendance.
	require.Len(t, dispatcher.received, 1)
	assert.Equal(t, attendance.StatusPresent, dispatcher.received[0].Status)
	require.NotNil(t, store.saved)
}

func TestRun_EmptyFetchSkipsPersist(t *testing.T) {
	source := &fakeSource{courses: nil}
	store := &fakeStore{snapshot: attendance.Snapshot{"c1": {Present: 5, Total: 10}}}
	dispatcher := &fakeDispatcher{}
	recorder := &fakeRecorder{}

	err := newJob(source, store, dispatcher, recorder).Run(context.Background())

	require.NoError(t, err)
	assert.Nil(t, store.saved)
	assert.Empty(t, dispatcher.received)

	require.Len(t, recorder.records, 1)
	assert.True(t, recorder.records[0].Succeeded)
	assert.Zero(t, recorder.records[0].CoursesFetched)
}

func TestRun_SaveFailureDoesNotFailRun(t *testing.T) {
	source := &fakeSource{courses: []attendance.Course{
		{ID: "c1", Label: "Algorithms", Present: 6, Total: 10},
	}}
	store := &fakeStore{
		snapshot: attendance.Snapshot{"c1": {Present: 5, Total: 10}},
		saveErr:  errors.New("disk full"),
	}
	dispatcher := &fakeDispatcher{}

	err := newJob(source, store, dispatcher, &fakeRecorder{}).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, dispatcher.received, 1)
}

func TestRun_NilRecorderIsAllowed(t *testing.T) {
	source := &fakeSource{courses: []attendance.Course{
		{ID: "c1", Label: "Algorithms", Present: 6, Total: 10},
	}}
	store := &fakeStore{}
	job := NewCheckAttendanceJob(source, store, &fakeDispatcher{}, nil, slog.Default(), nil, CheckAttendanceConfig{})

	require.NoError(t, job.Run(context.Background()))
}

func TestJobIdentity(t *testing.T) {
	job := NewCheckAttendanceJob(nil, nil, nil, nil, nil, nil, CheckAttendanceConfig{})

	assert.Equal(t, "check_attendance", job.Name())
	assert.NotEmpty(t, job.Description())
}
