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
	postCourseSuccess   = "Course added successfully with id = %s"
	updateCourseFailed  = "Course to be updated with id %s doesn't exist in our database records"
	updateCourseSuccess = "Course with id %s is successfully updated"
	deleteCourseFailed  = "Course to be deleted with id %s doesn't exist in our database records"
	deleteCourseSuccess = "Course with id %s is successfully deleted"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// CourseController handles course-related operations
type CourseController struct {
	courseService services.CourseService
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService services.CourseService) *CourseController {
	return &CourseController{
		courseService: courseService,
	}
}

func (c *CourseController) GetAllCourses(ctx *gin.Context) {
	courses, err := c.courseService.GetAll(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses))
}

func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.courseService.Get(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(course))
}

func (c *CourseController) AddCourse(ctx *gin.Context) {
	var req dto.CreateCourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	id, err := c.courseService.Add(ctx, &models.Course{
		Name:        req.Name,
		Description: req.Description,
		Credits:     req.Credits,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(postCourseSuccess, id), gin.H{"id": id}))
}

func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	id := ctx.Param("id")
	var req dto.UpdateCourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	patch := models.CoursePatch{Name: req.Name, Description: req.Description, Credits: req.Credits}
	if err := c.courseService.Update(ctx, id, patch); err != nil {
		middleware.HandleAPIErrorWithMessage(ctx, err, fmt.Sprintf(updateCourseFailed, id))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(updateCourseSuccess, id), nil))
}

// DeleteCourse removes the course and unsubscribes everyone from it
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.courseService.Delete(ctx, id); err != nil {
		middleware.HandleAPIErrorWithMessage(ctx, err, fmt.Sprintf(deleteCourseFailed, id))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse(fmt.Sprintf(deleteCourseSuccess, id), nil))
}

func (c *CourseController) GetRoster(ctx *gin.Context) {
	roster, err := c.courseService.GetRoster(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(roster))
}

// ExportRoster downloads the roster as an XLSX attachment
func (c *CourseController) ExportRoster(ctx *gin.Context) {
	id := ctx.Param("id")
	data, err := c.courseService.ExportRoster(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="roster-%s.xlsx"`, id))
	ctx.Data(http.StatusOK, xlsxContentType, data)
}

// courseRefs turns request course IDs into a course set; the repository
// resolves the rest of each course.
func courseRefs(ids []string) models.CourseSet {
	var set models.CourseSet
	for _, id := range ids {
		set = set.Add(models.Course{ID: id})
	}
	return set
}
