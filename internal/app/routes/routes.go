package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/cms/internal/app/controllers"
	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/middleware"
	"github.com/yigit/cms/internal/pkg/events"
)

// SetupRouter configures all application routes. When authMiddleware is nil
// the mutating routes are open.
func SetupRouter(
	router *gin.Engine,
	studentController *controllers.StudentController,
	instructorController *controllers.InstructorController,
	courseController *controllers.CourseController,
	eventsHandler *events.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	api := router.Group("/api")

	// Everything that changes state goes through this group
	var guard []gin.HandlerFunc
	if authMiddleware != nil {
		guard = []gin.HandlerFunc{authMiddleware.JWTAuth(), authMiddleware.RoleRequired(string(models.RoleAdmin))}
	}

	students := api.Group("/students")
	{
		students.GET("", studentController.GetAllStudents)
		students.GET("/:id", studentController.GetStudent)
		students.GET("/:id/courses", studentController.GetStudentCourses)

		studentsProtected := students.Group("", guard...)
		{
			studentsProtected.POST("", studentController.AddStudent)
			studentsProtected.PUT("/:id", studentController.UpdateStudent)
			studentsProtected.DELETE("/:id", studentController.DeleteStudent)
			studentsProtected.PUT("/:id/courses/:courseId", studentController.Subscribe)
			studentsProtected.DELETE("/:id/courses/:courseId", studentController.Unsubscribe)
		}
	}

	instructors := api.Group("/instructors")
	{
		instructors.GET("", instructorController.GetAllInstructors)
		instructors.GET("/:id", instructorController.GetInstructor)
		instructors.GET("/:id/courses", instructorController.GetInstructorCourses)

		instructorsProtected := instructors.Group("", guard...)
		{
			instructorsProtected.POST("", instructorController.AddInstructor)
			instructorsProtected.PUT("/:id", instructorController.UpdateInstructor)
			instructorsProtected.DELETE("/:id", instructorController.DeleteInstructor)
			instructorsProtected.PUT("/:id/courses/:courseId", instructorController.Subscribe)
			instructorsProtected.DELETE("/:id/courses/:courseId", instructorController.Unsubscribe)
		}
	}

	courses := api.Group("/courses")
	{
		courses.GET("", courseController.GetAllCourses)
		courses.GET("/:id", courseController.GetCourse)
		courses.GET("/:id/roster", courseController.GetRoster)
		courses.GET("/:id/roster/export", courseController.ExportRoster)

		coursesProtected := courses.Group("", guard...)
		{
			coursesProtected.POST("", courseController.AddCourse)
			coursesProtected.PUT("/:id", courseController.UpdateCourse)
			coursesProtected.DELETE("/:id", courseController.DeleteCourse)
		}
	}

	// Subscription event feed
	api.GET("/events", eventsHandler.HandleConnection)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
}
