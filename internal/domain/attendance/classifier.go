package attendance

// ChangeStatus describes what happened to a course's counters between two
// runs. It is derived per run and never persisted.
type ChangeStatus int

const (
	// StatusUnchanged means both counters are identical to the previous run.
	StatusUnchanged ChangeStatus = iota

	// StatusPresent means a new lecture occurred and the student attended it.
	StatusPresent

	// StatusAbsent means a new lecture occurred and the student missed it.
	StatusAbsent

	// StatusUnknown is the catch-all for anything else: total unchanged but
	// present moved, total decreased, or any other combination. The portal
	// occasionally rolls data back or corrects it; those anomalies are
	// classified, not rejected.
	StatusUnknown
)

// String returns the human-readable status label.
func (s ChangeStatus) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusPresent:
		return "present"
	case StatusAbsent:
		return "absent"
	case StatusUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// Classify compares the previous and current counters of one course and
// reports what changed. A course seen for the first time is classified
// against zero counters by the caller, so it reads as Present (or Unchanged
// when the current counters are also zero).
//
// Classify is pure and total: every pair of integers maps to exactly one
// status and no input can make it fail.
func Classify(prev, curr Counters) ChangeStatus {
	switch {
	case curr.Present == prev.Present && curr.Total == prev.Total:
		return StatusUnchanged
	case curr.Total > prev.Total && curr.Present > prev.Present:
		return StatusPresent
	case curr.Total > prev.Total && curr.Present == prev.Present:
		return StatusAbsent
	default:
		return StatusUnknown
	}
}
