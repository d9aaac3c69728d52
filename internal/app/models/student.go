package models

// Student defines the student model based on the 'students' table
type Student struct {
	ID      string    `json:"id" db:"id" example:"8c0e2b44-5f7a-4b1e-8d2c-6a9f0e1b2c3d"` // Server-generated identifier
	Name    string    `json:"name" db:"name" example:"Alice"`
	Courses CourseSet `json:"courses"` // Courses the student is enrolled in; from student_courses
}

// StudentPatch is a sparse student update; nil fields are left untouched.
type StudentPatch struct {
	Name *string `json:"name,omitempty"`
}

// ApplyTo merges the set fields of the patch into student.
func (p StudentPatch) ApplyTo(student *Student) {
	if p.Name != nil {
		student.Name = *p.Name
	}
}
