package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/app/models/dto"
	"github.com/yigit/cms/internal/app/services"
	"github.com/yigit/cms/internal/middleware"
)

const (
	postStudentSuccess      = "Student added successfully with id = %s"
	updateStudentFailed     = "Student to be updated with id %s doesn't exist in our database records"
	updateStudentSuccess    = "Student with id %s is successfully updated"
	deleteStudentFailed     = "Student to be deleted with id %s doesn't exist in our database records"
	deleteStudentSuccess    = "Student with id %s is successfully deleted"
	studentSubscribeFailed  = "Student with id %s couldn't be subscribed to course with id %s"
	studentSubscribeSuccess = "Student with id %s is successfully subscribed to course with id %s"
	studentUnsubFailed      = "Student with id %s couldn't be unsubscribed from course with id %s"
	studentUnsubSuccess     = "Student with id %s is successfully unsubscribed from course with id %s"
)

// StudentController handles student-related operations
type StudentController struct {
	studentService services.StudentService
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService) *StudentController {
	return &StudentController{
		studentService: studentService,
	}
}

// GetAllStudents lists every student
func (c *StudentController) GetAllStudents(ctx *gin.Context) {
	students, err := c.studentService.GetAll(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(students))
}

// GetStudent retrieves a student by ID
func (c *StudentController) GetStudent(ctx *gin.Context) {
	student, err := c.studentService.Get(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// AddStudent creates a student, optionally enrolled in the given courses.
// The response carries the generated ID both in the message and in data.
func (c *StudentController) AddStudent(ctx *gin.Context) {
	var req dto.CreateStudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	id, err := c.studentService.Add(ctx, &models.Student{
		Name:    req.Name,
		Courses: courseRefs(req.CourseIDs),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(postStudentSuccess, id), gin.H{"id": id}))
}

// UpdateStudent applies a partial update
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	id := ctx.Param("id")
	var req dto.UpdateStudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.studentService.Update(ctx, id, models.StudentPatch{Name: req.Name}); err != nil {
		middleware.HandleAPIErrorWithMessage(ctx, err, fmt.Sprintf(updateStudentFailed, id))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(updateStudentSuccess, id), nil))
}

// DeleteStudent removes a student together with its subscriptions
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.studentService.Delete(ctx, id); err != nil {
		middleware.HandleAPIErrorWithMessage(ctx, err, fmt.Sprintf(deleteStudentFailed, id))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(deleteStudentSuccess, id), nil))
}

// GetStudentCourses lists the courses the student is enrolled in
func (c *StudentController) GetStudentCourses(ctx *gin.Context) {
	courses, err := c.studentService.GetCourses(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses))
}

// Subscribe enrolls the student in a course
func (c *StudentController) Subscribe(ctx *gin.Context) {
	id, courseID := ctx.Param("id"), ctx.Param("courseId")
	if err := c.studentService.Subscribe(ctx, id, courseID); err != nil {
		middleware.HandleAPIErrorWithMessage(ctx, err, fmt.Sprintf(studentSubscribeFailed, id, courseID))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(studentSubscribeSuccess, id, courseID), nil))
}

// Unsubscribe removes the student from a course
func (c *StudentController) Unsubscribe(ctx *gin.Context) {
	id, courseID := ctx.Param("id"), ctx.Param("courseId")
	if err := c.studentService.Unsubscribe(ctx, id, courseID); err != nil {
		middleware.HandleAPIErrorWithMessage(ctx, err, fmt.Sprintf(studentUnsubFailed, id, courseID))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(studentUnsubSuccess, id, courseID), nil))
}
