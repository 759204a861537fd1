package attendance

import "math"

// RequiredPercentage is the attendance threshold the portal enforces.
// Below it the student is barred from exams; the alert math is built
// entirely around this boundary.
const RequiredPercentage = 75.0

// Severity classifies a course's attendance standing.
type Severity int

const (
	// SeverityCritical means attendance is strictly below the required
	// percentage.
	SeverityCritical Severity = iota

	// SeveritySecure means attendance is at or above the required
	// percentage.
	SeveritySecure
)

// String returns the human-readable severity label.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeveritySecure:
		return "secure"
	default:
		return "unknown"
	}
}

// Alert is the structured payload describing one course's attendance risk.
// Rendering it into prose is a presentation concern; the numeric fields are
// the contract.
type Alert struct {
	// CourseLabel is the course name to show in the message.
	CourseLabel string

	// Present and Total are the current counters the metrics were
	// computed from.
	Present int
	Total   int

	// Percentage is attendance in [0,100]; 0 when no lectures were held.
	Percentage float64

	// Severity is Critical below RequiredPercentage, Secure otherwise.
	Severity Severity

	// ActionCount is the number of consecutive future lectures the student
	// must attend to reach the required percentage (Critical), or the
	// number of future lectures they can afford to miss while staying at
	// or above it (Secure). Never negative.
	ActionCount int

	// Status is the change classification that triggered the alert.
	// It only affects the message text, not the metrics.
	Status ChangeStatus
}

// ComputeAlert builds the alert payload for one course from its current
// counters. The status is carried through for rendering; Unknown still gets
// full metrics, it means "something changed but the direction is unclear",
// not "skip this course".
//
// Skewed input (present > total, negatives) can drive the intermediate math
// out of range; the action count is clamped at zero rather than surfaced as
// an error.
func ComputeAlert(courseLabel string, present, total int, status ChangeStatus) Alert {
	var percentage float64
	if total > 0 {
		percentage = float64(present) / float64(total) * 100
	}

	alert := Alert{
		CourseLabel: courseLabel,
		Present:     present,
		Total:       total,
		Percentage:  percentage,
		Status:      status,
	}

	if percentage < RequiredPercentage {
		alert.Severity = SeverityCritical
		// Attending a lecture raises present and total by one, so each
		// attended lecture closes the gap to 75% by 0.25 of a lecture.
		needed := math.Ceil((0.75*float64(total) - float64(present)) / 0.25)
		alert.ActionCount = clampNonNegative(needed)
	} else {
		alert.Severity = SeveritySecure
		// A skipped lecture raises only total; present/(total+n) >= 0.75
		// holds while n <= present/0.75 - total.
		skippable := math.Floor(float64(present)/0.75 - float64(total))
		alert.ActionCount = clampNonNegative(skippable)
	}

	return alert
}

func clampNonNegative(v float64) int {
	if v < 0 {
		return 0
	}
	return int(v)
}
