package portal

import "errors"

// ErrNilDTO is returned when a nil DTO is passed to the mapper.
var ErrNilDTO = errors.New("portal: nil DTO")

// ══════════════════════════════════════════════════════════════════════════════
// DATA TRANSFER OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse is the generic envelope every portal endpoint uses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// TokenDTO holds the bearer token returned by the sign-in endpoint.
type TokenDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CourseDTO is one course row as the portal returns it. The portal reports
// attendance as absolute lecture counts, not percentages; nothing guarantees
// attended <= total, corrections and rollbacks do happen.
type CourseDTO struct {
	ID               string `json:"id"`
	Code             string `json:"code"`
	Title            string `json:"title"`
	AttendedLectures int    `json:"attended_lectures"`
	TotalLectures    int    `json:"total_lectures"`
}

// CoursesDTO is the payload of the attendance endpoint. Courses arrive in
// the portal's display order and that order is preserved downstream.
type CoursesDTO struct {
	Courses []CourseDTO `json:"courses"`
}
