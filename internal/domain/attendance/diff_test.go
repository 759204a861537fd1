package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_FirstRun(t *testing.T) {
	// No previous snapshot: the course is measured against zero counters.
	next, notifications := Diff(nil, []Course{
		{ID: "CS101", Label: "Intro to CS", Present: 5, Total: 10},
	})

	assert.Equal(t, Snapshot{"CS101": {Present: 5, Total: 10}}, next)

	require.Len(t, notifications, 1)
	n := notifications[0]
	assert.Equal(t, StatusPresent, n.Status)
	assert.Equal(t, "CS101", n.Course.ID)
	assert.Equal(t, SeverityCritical, n.Alert.Severity)
	assert.InDelta(t, 50.0, n.Alert.Percentage, 1e-9)
	assert.Equal(t, 10, n.Alert.ActionCount)
}

func TestDiff_MissedLecture(t *testing.T) {
	prev := Snapshot{"CS101": {Present: 5, Total: 10}}

	next, notifications := Diff(prev, []Course{
		{ID: "CS101", Label: "Intro to CS", Present: 5, Total: 11},
	})

	assert.Equal(t, Snapshot{"CS101": {Present: 5, Total: 11}}, next)

	require.Len(t, notifications, 1)
	n := notifications[0]
	assert.Equal(t, StatusAbsent, n.Status)
	assert.Equal(t, SeverityCritical, n.Alert.Severity)
	assert.Equal(t, 13, n.Alert.ActionCount)
}

func TestDiff_UnchangedProducesNoNotification(t *testing.T) {
	prev := Snapshot{"CS101": {Present: 8, Total: 10}}

	next, notifications := Diff(prev, []Course{
		{ID: "CS101", Label: "Intro to CS", Present: 8, Total: 10},
	})

	assert.Empty(t, notifications)
	// The snapshot still records the course with its latest counters.
	assert.Equal(t, Snapshot{"CS101": {Present: 8, Total: 10}}, next)
}

func TestDiff_EmptyFetchDropsEverything(t *testing.T) {
	prev := Snapshot{
		"CS101": {Present: 5, Total: 10},
		"MA201": {Present: 7, Total: 8},
	}

	next, notifications := Diff(prev, nil)

	assert.Empty(t, next)
	assert.Empty(t, notifications)
	// prev must not be touched.
	assert.Len(t, prev, 2)
}

func TestDiff_DroppedCourseLeavesNoTrace(t *testing.T) {
	prev := Snapshot{
		"CS101": {Present: 5, Total: 10},
		"MA201": {Present: 7, Total: 8},
	}

	next, notifications := Diff(prev, []Course{
		{ID: "CS101", Label: "Intro to CS", Present: 5, Total: 10},
	})

	assert.Empty(t, notifications)
	assert.Equal(t, Snapshot{"CS101": {Present: 5, Total: 10}}, next)
	assert.NotContains(t, next, "MA201")
}

func TestDiff_PreservesCourseOrder(t *testing.T) {
	courses := []Course{
		{ID: "c3", Label: "Third", Present: 1, Total: 2},
		{ID: "c1", Label: "First", Present: 3, Total: 4},
		{ID: "c2", Label: "Second", Present: 5, Total: 6},
	}

	_, notifications := Diff(nil, courses)

	require.Len(t, notifications, 3)
	assert.Equal(t, "c3", notifications[0].Course.ID)
	assert.Equal(t, "c1", notifications[1].Course.ID)
	assert.Equal(t, "c2", notifications[2].Course.ID)
}

func TestDiff_MixedBatch(t *testing.T) {
	prev := Snapshot{
		"unchanged": {Present: 8, Total: 10},
		"attended":  {Present: 8, Total: 10},
		"missed":    {Present: 8, Total: 10},
		"anomaly":   {Present: 8, Total: 10},
	}

	next, notifications := Diff(prev, []Course{
		{ID: "unchanged", Label: "A", Present: 8, Total: 10},
		{ID: "attended", Label: "B", Present: 9, Total: 11},
		{ID: "missed", Label: "C", Present: 8, Total: 11},
		{ID: "anomaly", Label: "D", Present: 8, Total: 9},
		{ID: "brand-new", Label: "E", Present: 1, Total: 1},
	})

	// Snapshot completeness: every fetched course is present with its
	// latest counters, whatever its status.
	require.Len(t, next, 5)
	assert.Equal(t, Counters{Present: 8, Total: 10}, next["unchanged"])
	assert.Equal(t, Counters{Present: 9, Total: 11}, next["attended"])
	assert.Equal(t, Counters{Present: 8, Total: 11}, next["missed"])
	assert.Equal(t, Counters{Present: 8, Total: 9}, next["anomaly"])
	assert.Equal(t, Counters{Present: 1, Total: 1}, next["brand-new"])

	require.Len(t, notifications, 4)
	assert.Equal(t, StatusPresent, notifications[0].Status)
	assert.Equal(t, StatusAbsent, notifications[1].Status)
	assert.Equal(t, StatusUnknown, notifications[2].Status)
	assert.Equal(t, StatusPresent, notifications[3].Status)
}

func TestDiff_ZeroZeroFirstSeenIsSilent(t *testing.T) {
	// A brand-new course with no lectures yet matches the zero default and
	// must not alert.
	next, notifications := Diff(nil, []Course{
		{ID: "sem", Label: "Seminar", Present: 0, Total: 0},
	})

	assert.Empty(t, notifications)
	assert.Equal(t, Snapshot{"sem": {}}, next)
}

func TestSnapshot_Clone(t *testing.T) {
	orig := Snapshot{"a": {Present: 1, Total: 2}}

	clone := orig.Clone()
	clone["a"] = Counters{Present: 9, Total: 9}
	clone["b"] = Counters{}

	assert.Equal(t, Snapshot{"a": {Present: 1, Total: 2}}, orig)
	assert.NotNil(t, Snapshot(nil).Clone())
}
