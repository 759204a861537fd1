package attendance

// Notification pairs a changed course with its classification and the alert
// payload computed from its current counters. The dispatch layer turns it
// into a message; the differ only decides that it should exist.
type Notification struct {
	Course Course
	Status ChangeStatus
	Alert  Alert
}

// Diff runs the current course list against the previous snapshot and
// returns the snapshot to persist plus one notification per changed course.
//
// Behavior, in order of the course list as given (no resorting):
//
//   - a course missing from prev is compared against zero counters, so a
//     first-seen course reports Present unless its counters are also zero;
//   - the new snapshot records the current counters for every fetched
//     course, changed or not;
//   - courses present in prev but absent from the fetch are dropped from
//     the new snapshot silently - no removal notification;
//   - an empty course list yields an empty snapshot and no notifications.
//
// Diff performs no I/O and never fails. prev is never mutated; the caller
// decides whether and where the returned snapshot is persisted.
func Diff(prev Snapshot, courses []Course) (Snapshot, []Notification) {
	next := make(Snapshot, len(courses))
	var notifications []Notification

	for _, course := range courses {
		curr := course.Counters()
		prevCounters := prev[course.ID] // zero value when absent

		status := Classify(prevCounters, curr)
		next[course.ID] = curr

		if status == StatusUnchanged {
			continue
		}

		notifications = append(notifications, Notification{
			Course: course,
			Status: status,
			Alert:  ComputeAlert(course.Label, course.Present, course.Total, status),
		})
	}

	return next, notifications
}
