package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/cms/internal/app/controllers"
	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/app/models/dto"
	"github.com/yigit/cms/internal/app/repositories/memory"
	"github.com/yigit/cms/internal/app/services"
	"github.com/yigit/cms/internal/middleware"
	"github.com/yigit/cms/internal/pkg/auth"
	"github.com/yigit/cms/internal/pkg/events"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorDetail
}

type testAPI struct {
	c      *qt.C
	router *gin.Engine
	token  string
}

func newTestAPI(c *qt.C, authMiddleware *middleware.AuthMiddleware) *testAPI {
	repos, err := memory.NewRepositories()
	c.Assert(err, qt.IsNil)
	lgr := zerolog.Nop()
	hub := events.NewHub(lgr)

	router := gin.New()
	SetupRouter(router,
		controllers.NewStudentController(services.NewStudentService(repos.StudentRepository, repos.CourseRepository, hub, lgr)),
		controllers.NewInstructorController(services.NewInstructorService(repos.InstructorRepository, repos.CourseRepository, hub, lgr)),
		controllers.NewCourseController(services.NewCourseService(repos, lgr)),
		events.NewHandler(hub, lgr),
		authMiddleware,
	)
	return &testAPI{c: c, router: router}
}

func (a *testAPI) do(method, path, body string) (*httptest.ResponseRecorder, apiResponse) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		a.c.Assert(json.Unmarshal(rec.Body.Bytes(), &resp), qt.IsNil)
	}
	return rec, resp
}

func (a *testAPI) create(path, body string) string {
	rec, resp := a.do(http.MethodPost, path, body)
	a.c.Assert(rec.Code, qt.Equals, http.StatusOK, qt.Commentf("body: %s", rec.Body.String()))
	var data struct {
		ID string `json:"id"`
	}
	a.c.Assert(json.Unmarshal(resp.Data, &data), qt.IsNil)
	return data.ID
}

func TestStudentLifecycle(t *testing.T) {
	c := qt.New(t)
	api := newTestAPI(c, nil)

	courseID := api.create("/api/courses", `{"name":"Math","credits":5}`)

	rec, resp := api.do(http.MethodPost, "/api/students", `{"name":"Alice"}`)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	var created struct{ ID string }
	c.Assert(json.Unmarshal(resp.Data, &created), qt.IsNil)
	id := created.ID
	c.Assert(resp.Message, qt.Equals, "Student added successfully with id = "+id)

	rec, resp = api.do(http.MethodGet, "/api/students/"+id, "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	var student models.Student
	c.Assert(json.Unmarshal(resp.Data, &student), qt.IsNil)
	c.Assert(student.Name, qt.Equals, "Alice")

	rec, resp = api.do(http.MethodPut, fmt.Sprintf("/api/students/%s/courses/%s", id, courseID), "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(resp.Message, qt.Equals, fmt.Sprintf("Student with id %s is successfully subscribed to course with id %s", id, courseID))

	rec, resp = api.do(http.MethodGet, "/api/students/"+id+"/courses", "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	var courses []models.Course
	c.Assert(json.Unmarshal(resp.Data, &courses), qt.IsNil)
	c.Assert(courses, qt.HasLen, 1)
	c.Assert(courses[0].Name, qt.Equals, "Math")

	rec, _ = api.do(http.MethodPut, "/api/students/"+id, `{"name":"Alicia"}`)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	rec, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/students/%s/courses/%s", id, courseID), "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	_, resp = api.do(http.MethodGet, "/api/students/"+id+"/courses", "")
	c.Assert(string(resp.Data), qt.Equals, "[]")

	rec, resp = api.do(http.MethodDelete, "/api/students/"+id, "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(resp.Message, qt.Equals, fmt.Sprintf("Student with id %s is successfully deleted", id))

	rec, _ = api.do(http.MethodGet, "/api/students/"+id, "")
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
}

func TestStudentErrors(t *testing.T) {
	c := qt.New(t)
	api := newTestAPI(c, nil)
	studentID := api.create("/api/students", `{"name":"Alice"}`)

	rec, resp := api.do(http.MethodPut, "/api/students/missing", `{"name":"Bob"}`)
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
	c.Assert(resp.Message, qt.Equals, "Student to be updated with id missing doesn't exist in our database records")

	rec, resp = api.do(http.MethodDelete, "/api/students/missing", "")
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
	c.Assert(resp.Message, qt.Equals, "Student to be deleted with id missing doesn't exist in our database records")

	rec, resp = api.do(http.MethodPut, "/api/students/"+studentID+"/courses/nope", "")
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
	c.Assert(resp.Message, qt.Equals, fmt.Sprintf("Student with id %s couldn't be subscribed to course with id nope", studentID))
	c.Assert(resp.Error.Details, qt.Equals, "COURSE_NOT_FOUND")

	rec, _ = api.do(http.MethodGet, "/api/students/missing/courses", "")
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)

	rec, resp = api.do(http.MethodPost, "/api/students", `{"name":""}`)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)
	c.Assert(resp.Error.Code, qt.Equals, dto.ErrorCodeValidationFailed)

	rec, resp = api.do(http.MethodPut, "/api/students/"+studentID, `{"name":"   "}`)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)
	c.Assert(resp.Error.Field, qt.Equals, "Name")

	rec, _ = api.do(http.MethodPost, "/api/students", `{"name":"Carol","courseIds":["nope"]}`)
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
}

func TestInstructorRoutes(t *testing.T) {
	c := qt.New(t)
	api := newTestAPI(c, nil)
	courseID := api.create("/api/courses", `{"name":"Physics"}`)

	rec, resp := api.do(http.MethodPost, "/api/instructors", fmt.Sprintf(`{"name":"Bob","courseIds":[%q]}`, courseID))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(strings.HasPrefix(resp.Message, "Instructor added successfully with id = "), qt.IsTrue)
	var created struct{ ID string }
	c.Assert(json.Unmarshal(resp.Data, &created), qt.IsNil)

	_, resp = api.do(http.MethodGet, "/api/instructors/"+created.ID+"/courses", "")
	var courses []models.Course
	c.Assert(json.Unmarshal(resp.Data, &courses), qt.IsNil)
	c.Assert(courses, qt.HasLen, 1)

	rec, resp = api.do(http.MethodDelete, fmt.Sprintf("/api/instructors/%s/courses/%s", created.ID, courseID), "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(resp.Message, qt.Equals, fmt.Sprintf("Instructor with id %s is successfully unsubscribed from course with id %s", created.ID, courseID))

	rec, _ = api.do(http.MethodPut, "/api/instructors/missing/courses/"+courseID, "")
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)

	rec, resp = api.do(http.MethodGet, "/api/instructors", "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	var all []models.Instructor
	c.Assert(json.Unmarshal(resp.Data, &all), qt.IsNil)
	c.Assert(all, qt.HasLen, 1)
}

func TestCourseRoutes(t *testing.T) {
	c := qt.New(t)
	api := newTestAPI(c, nil)
	courseID := api.create("/api/courses", `{"name":"Databases","credits":5}`)
	studentID := api.create("/api/students", fmt.Sprintf(`{"name":"Alice","courseIds":[%q]}`, courseID))

	rec, _ := api.do(http.MethodPut, "/api/courses/"+courseID, `{"credits":6}`)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	_, resp := api.do(http.MethodGet, "/api/courses/"+courseID, "")
	var course models.Course
	c.Assert(json.Unmarshal(resp.Data, &course), qt.IsNil)
	c.Assert(course.Name, qt.Equals, "Databases")
	c.Assert(course.Credits, qt.Equals, 6)

	rec, _ = api.do(http.MethodPost, "/api/courses", `{"name":"Too much","credits":61}`)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)

	rec, resp = api.do(http.MethodGet, "/api/courses/"+courseID+"/roster", "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	var roster models.Roster
	c.Assert(json.Unmarshal(resp.Data, &roster), qt.IsNil)
	c.Assert(roster.Students, qt.HasLen, 1)
	c.Assert(roster.Students[0].ID, qt.Equals, studentID)

	rec, _ = api.do(http.MethodGet, "/api/courses/"+courseID+"/roster/export", "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(rec.Header().Get("Content-Disposition"), qt.Equals, fmt.Sprintf(`attachment; filename="roster-%s.xlsx"`, courseID))
	c.Assert(rec.Body.Len() > 0, qt.IsTrue)

	rec, resp = api.do(http.MethodDelete, "/api/courses/"+courseID, "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(resp.Message, qt.Equals, fmt.Sprintf("Course with id %s is successfully deleted", courseID))

	_, resp = api.do(http.MethodGet, "/api/students/"+studentID+"/courses", "")
	c.Assert(string(resp.Data), qt.Equals, "[]")

	rec, _ = api.do(http.MethodGet, "/api/courses/"+courseID+"/roster", "")
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
}

func TestMutatingRoutesRequireAdmin(t *testing.T) {
	c := qt.New(t)
	svc := auth.NewJWTService(auth.JWTConfig{SecretKey: "s3cret", TokenExp: time.Hour})
	api := newTestAPI(c, middleware.NewAuthMiddleware(svc))

	rec, _ := api.do(http.MethodPost, "/api/courses", `{"name":"Math"}`)
	c.Assert(rec.Code, qt.Equals, http.StatusUnauthorized)

	// Reads stay open
	rec, _ = api.do(http.MethodGet, "/api/courses", "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	token, _, err := svc.GenerateToken("ops", models.RoleAdmin)
	c.Assert(err, qt.IsNil)
	api.token = token
	rec, _ = api.do(http.MethodPost, "/api/courses", `{"name":"Math"}`)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
}

func TestPing(t *testing.T) {
	c := qt.New(t)
	api := newTestAPI(c, nil)
	rec, _ := api.do(http.MethodGet, "/ping", "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
}
