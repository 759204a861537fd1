package portal

import (
	"strings"

	"github.com/rollcall-hub/attendance-monitor/internal/domain/attendance"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to domain transformations
// ══════════════════════════════════════════════════════════════════════════════

// Mapper translates portal DTOs into domain values. It is the
// anti-corruption layer between the portal's wire format and the attendance
// domain: field renames and format quirks stop here.
type Mapper struct{}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// CourseFromDTO converts a CourseDTO to a domain Course. Counter values are
// passed through untouched; validating or repairing them is deliberately not
// done here, the domain classifies anomalies itself.
func (m *Mapper) CourseFromDTO(dto *CourseDTO) (attendance.Course, error) {
	if dto == nil {
		return attendance.Course{}, ErrNilDTO
	}

	// Prefer the title, fall back to the code, then to the raw id, so the
	// rendered message always has something readable.
	label := strings.TrimSpace(dto.Title)
	if label == "" {
		label = strings.TrimSpace(dto.Code)
	}
	if label == "" {
		label = dto.ID
	}

	return attendance.Course{
		ID:      dto.ID,
		Label:   label,
		Present: dto.AttendedLectures,
		Total:   dto.TotalLectures,
	}, nil
}

// CoursesFromDTO converts the attendance payload into an ordered course
// slice, keeping the portal's order.
func (m *Mapper) CoursesFromDTO(dto *CoursesDTO) ([]attendance.Course, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}

	courses := make([]attendance.Course, 0, len(dto.Courses))
	for i := range dto.Courses {
		course, err := m.CourseFromDTO(&dto.Courses[i])
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, nil
}
