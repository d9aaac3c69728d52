package dto

// CreateStudentRequest is the body of POST /api/students
type CreateStudentRequest struct {
	Name      string   `json:"name" binding:"required,notblank,max=255"`
	CourseIDs []string `json:"courseIds,omitempty" binding:"omitempty,dive,required"`
}

// UpdateStudentRequest is the body of PUT /api/students/:id. Omitted fields are left unchanged.
type UpdateStudentRequest struct {
	Name *string `json:"name,omitempty" binding:"omitempty,notblank,max=255"`
}
