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
	postInstructorSuccess      = "Instructor added successfully with id = %s"
	updateInstructorFailed     = "Instructor to be updated with id %s doesn't exist in our database records"
	updateInstructorSuccess    = "Instructor with id %s is successfully updated"
	deleteInstructorFailed     = "Instructor to be deleted with id %s doesn't exist in our database records"
	deleteInstructorSuccess    = "Instructor with id %s is successfully deleted"
	instructorSubscribeFailed  = "Instructor with id %s couldn't be subscribed to course with id %s"
	instructorSubscribeSuccess = "Instructor with id %s is successfully subscribed to course with id %s"
	instructorUnsubFailed      = "Instructor with id %s couldn't be unsubscribed from course with id %s"
	instructorUnsubSuccess     = "Instructor with id %s is successfully unsubscribed from course with id %s"
)

// InstructorController handles instructor-related operations
type InstructorController struct {
	instructorService services.InstructorService
}

// NewInstructorController creates a new InstructorController
func NewInstructorController(instructorService services.InstructorService) *InstructorController {
	return &InstructorController{
		instructorService: instructorService,
	}
}

func (c *InstructorController) GetAllInstructors(ctx *gin.Context) {
	instructors, err := c.instructorService.GetAll(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(instructors))
}

func (c *InstructorController) GetInstructor(ctx *gin.Context) {
	instructor, err := c.instructorService.Get(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(instructor))
}

func (c *InstructorController) AddInstructor(ctx *gin.Context) {
	var req dto.CreateInstructorRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	id, err := c.instructorService.Add(ctx, &models.Instructor{
		Name:    req.Name,
		Courses: courseRefs(req.CourseIDs),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(postInstructorSuccess, id), gin.H{"id": id}))
}

func (c *InstructorController) UpdateInstructor(ctx *gin.Context) {
	id := ctx.Param("id")
	var req dto.UpdateInstructorRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.instructorService.Update(ctx, id, models.InstructorPatch{Name: req.Name}); err != nil {
		middleware.HandleAPIErrorWithMessage(ctx, err, fmt.Sprintf(updateInstructorFailed, id))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(updateInstructorSuccess, id), nil))
}

func (c *InstructorController) DeleteInstructor(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.instructorService.Delete(ctx, id); err != nil {
		middleware.HandleAPIErrorWithMessage(ctx, err, fmt.Sprintf(deleteInstructorFailed, id))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(deleteInstructorSuccess, id), nil))
}

func (c *InstructorController) GetInstructorCourses(ctx *gin.Context) {
	courses, err := c.instructorService.GetCourses(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses))
}

func (c *InstructorController) Subscribe(ctx *gin.Context) {
	id, courseID := ctx.Param("id"), ctx.Param("courseId")
	if err := c.instructorService.Subscribe(ctx, id, courseID); err != nil {
		middleware.HandleAPIErrorWithMessage(ctx, err, fmt.Sprintf(instructorSubscribeFailed, id, courseID))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(instructorSubscribeSuccess, id, courseID), nil))
}

func (c *InstructorController) Unsubscribe(ctx *gin.Context) {
	id, courseID := ctx.Param("id"), ctx.Param("courseId")
	if err := c.instructorService.Unsubscribe(ctx, id, courseID); err != nil {
		middleware.HandleAPIErrorWithMessage(ctx, err, fmt.Sprintf(instructorUnsubFailed, id, courseID))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(instructorUnsubSuccess, id, courseID), nil))
}
