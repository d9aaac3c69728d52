package models

// Instructor defines the instructor model based on the 'instructors' table
type Instructor struct {
	ID      string    `json:"id" db:"id" example:"b71c9d20-1e3f-4c5a-8b6d-7e8f9a0b1c2d"` // Server-generated identifier
	Name    string    `json:"name" db:"name" example:"Prof. Turing"`
	Courses CourseSet `json:"courses"` // Courses the instructor teaches; from instructor_courses
}

// InstructorPatch is a sparse instructor update; nil fields are left untouched.
type InstructorPatch struct {
	Name *string `json:"name,omitempty"`
}

// ApplyTo merges the set fields of the patch into instructor.
func (p InstructorPatch) ApplyTo(instructor *Instructor) {
	if p.Name != nil {
		instructor.Name = *p.Name
	}
}
