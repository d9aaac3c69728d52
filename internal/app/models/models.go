package models

// RoleType defines the role carried in access tokens
type RoleType string

const (
	RoleAdmin RoleType = "ADMIN"
)

// Roster lists everyone attached to a course.
type Roster struct {
	Course      *Course       `json:"course"`
	Students    []*Student    `json:"students"`
	Instructors []*Instructor `json:"instructors"`
}

// StringPtr returns a pointer to s. Handy for building patches.
func StringPtr(s string) *string {
	return &s
}
