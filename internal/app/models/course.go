package models

// Course represents a course that students attend and instructors teach.
type Course struct {
	ID          string  `json:"id" db:"id" example:"3f2a6c1e-7d4b-4a8e-9a51-0c1d2e3f4a5b"`
	Name        string  `json:"name" db:"name" example:"Distributed Systems"`
	Description *string `json:"description,omitempty" db:"description"` // Nullable
	Credits     int     `json:"credits" db:"credits" example:"6"`
}

// CoursePatch is a sparse course update; nil fields are left untouched.
type CoursePatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Credits     *int    `json:"credits,omitempty"`
}

// ApplyTo merges the set fields of the patch into course.
func (p CoursePatch) ApplyTo(course *Course) {
	if p.Name != nil {
		course.Name = *p.Name
	}
	if p.Description != nil {
		description := *p.Description
		course.Description = &description
	}
	if p.Credits != nil {
		course.Credits = *p.Credits
	}
}

// CourseSet is the course collection held by a student or an instructor.
// Membership is keyed by course ID, so adding an existing course is a no-op.
type CourseSet []Course

// Contains reports whether a course with the given ID is in the set.
func (s CourseSet) Contains(courseID string) bool {
	return s.index(courseID) >= 0
}

// Add returns the set with course appended, unless a course with the same ID
// is already present.
func (s CourseSet) Add(course Course) CourseSet {
	if s.Contains(course.ID) {
		return s
	}
	return append(s, course)
}

// Remove returns the set without the course with the given ID. Removing an
// absent course returns the set unchanged.
func (s CourseSet) Remove(courseID string) CourseSet {
	i := s.index(courseID)
	if i < 0 {
		return s
	}
	out := make(CourseSet, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

// IDs returns the course IDs in set order.
func (s CourseSet) IDs() []string {
	ids := make([]string, len(s))
	for i, course := range s {
		ids[i] = course.ID
	}
	return ids
}

func (s CourseSet) index(courseID string) int {
	for i, course := range s {
		if course.ID == courseID {
			return i
		}
	}
	return -1
}
