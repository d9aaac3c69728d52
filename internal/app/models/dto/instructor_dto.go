package dto

// CreateInstructorRequest is the body of POST /api/instructors
type CreateInstructorRequest struct {
	Name      string   `json:"name" binding:"required,notblank,max=255"`
	CourseIDs []string `json:"courseIds,omitempty" binding:"omitempty,dive,required"`
}

// UpdateInstructorRequest is the body of PUT /api/instructors/:id
type UpdateInstructorRequest struct {
	Name *string `json:"name,omitempty" binding:"omitempty,notblank,max=255"`
}
