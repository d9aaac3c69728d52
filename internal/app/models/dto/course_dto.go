package dto

// CreateCourseRequest is the body of POST /api/courses
type CreateCourseRequest struct {
	Name        string  `json:"name" binding:"required,notblank,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Credits     int     `json:"credits" binding:"min=0,max=60"`
}

// UpdateCourseRequest is the body of PUT /api/courses/:id
type UpdateCourseRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,notblank,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Credits     *int    `json:"credits,omitempty" binding:"omitempty,min=0,max=60"`
}
