// Package attendance contains the domain model for per-course attendance
// tracking. It is the core of the attendance monitor: given the counters
// persisted after the previous run and the counters fetched in the current
// run, it decides which courses changed, how risky the student's attendance
// is, and what should be communicated.
//
// The package follows the same principles as the rest of the domain layer:
//
//  1. Zero external dependencies - only the Go standard library
//  2. Pure functions over plain data - no I/O, no ambient state
//  3. Total over its input domain - malformed counters are classified,
//     never rejected
//
// Fetching courses, persisting snapshots, and delivering messages are
// infrastructure concerns implemented outside this package.
package attendance

// Counters holds the (present, total) lecture-count pair for one course at a
// point in time. Both values are non-negative in well-formed data, but the
// upstream portal does not enforce that and neither does this package:
// present > total, negative values, and rollbacks are all valid input.
type Counters struct {
	// Present is the number of lectures the student attended.
	Present int `json:"present"`

	// Total is the number of lectures held to date.
	Total int `json:"total"`
}

// Snapshot maps a course identifier to its counters as of one run.
// It is the only state the monitor carries between invocations. The previous
// run's snapshot is read-only input; each run builds a fresh one.
type Snapshot map[string]Counters

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := make(Snapshot, len(s))
	for id, c := range s {
		out[id] = c
	}
	return out
}

// Course is one course record as fetched from the portal.
type Course struct {
	// ID uniquely identifies the course on the portal.
	ID string

	// Label is the human-readable course name used in messages.
	Label string

	// Present is the attended-lecture count.
	Present int

	// Total is the held-lecture count.
	Total int
}

// Counters returns the course's counter pair.
func (c Course) Counters() Counters {
	return Counters{Present: c.Present, Total: c.Total}
}
