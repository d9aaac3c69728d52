package repositories_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/yigit/cms/internal/app/migrations"
	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/app/repositories"
	"github.com/yigit/cms/internal/app/services"
	"github.com/yigit/cms/internal/db"
	"github.com/yigit/cms/internal/pkg/apperrors"
	"github.com/yigit/cms/internal/pkg/events"
)

// testDatabaseEnv names a Postgres DSN. Each test runs in its own schema,
// which is dropped afterwards.
const testDatabaseEnv = "CMS_TEST_DATABASE_URL"

func newTestDB(c *qt.C, maxConns int32) *db.PostgresDB {
	dsn := os.Getenv(testDatabaseEnv)
	if dsn == "" {
		c.Skip(testDatabaseEnv + " is not set")
	}
	ctx := context.Background()

	schema := "cms_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	conn, err := pgx.Connect(ctx, dsn)
	c.Assert(err, qt.IsNil)
	_, err = conn.Exec(ctx, "CREATE SCHEMA "+schema)
	conn.Close(ctx)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() {
		conn, err := pgx.Connect(context.Background(), dsn)
		if err != nil {
			c.Logf("cannot drop schema %s: %v", schema, err)
			return
		}
		defer conn.Close(context.Background())
		if _, err := conn.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE"); err != nil {
			c.Logf("cannot drop schema %s: %v", schema, err)
		}
	})

	poolConfig, err := pgxpool.ParseConfig(dsn)
	c.Assert(err, qt.IsNil)
	poolConfig.ConnConfig.RuntimeParams["search_path"] = schema
	poolConfig.MaxConns = maxConns
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	c.Assert(err, qt.IsNil)
	c.Cleanup(pool.Close)

	migrator := migrations.NewMigrator(pool, zerolog.Nop())
	err = migrator.MigrateFromDirectory(ctx, filepath.Join("..", "..", "..", "migrations"))
	c.Assert(err, qt.IsNil)

	return &db.PostgresDB{Pool: pool}
}

func saveCourse(c *qt.C, repo repositories.CourseRepository, name string) *models.Course {
	course, err := repo.Save(context.Background(), &models.Course{Name: name, Credits: 5})
	c.Assert(err, qt.IsNil)
	return course
}

func TestPostgresStudentSaveSyncsCourses(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repos := repositories.NewRepositories(newTestDB(c, 4))

	a := saveCourse(c, repos.CourseRepository, "Algorithms")
	b := saveCourse(c, repos.CourseRepository, "Databases")

	saved, err := repos.StudentRepository.Save(ctx, &models.Student{Name: "Alice", Courses: models.CourseSet{*a}})
	c.Assert(err, qt.IsNil)
	c.Assert(saved.ID, qt.Not(qt.Equals), "")
	c.Assert(saved.Courses, qt.DeepEquals, models.CourseSet{*a})

	// Overwriting by ID drops a and adds b.
	saved.Name = "Alice B."
	saved.Courses = models.CourseSet{*b}
	_, err = repos.StudentRepository.Save(ctx, saved)
	c.Assert(err, qt.IsNil)

	got, err := repos.StudentRepository.FindByID(ctx, saved.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Name, qt.Equals, "Alice B.")
	c.Assert(got.Courses, qt.DeepEquals, models.CourseSet{*b})

	all, err := repos.StudentRepository.FindAll(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.HasLen, 1)
	c.Assert(all[0].Courses.IDs(), qt.DeepEquals, []string{b.ID})
}

func TestPostgresFindByCourse(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repos := repositories.NewRepositories(newTestDB(c, 4))

	a := saveCourse(c, repos.CourseRepository, "Algorithms")
	b := saveCourse(c, repos.CourseRepository, "Databases")

	for _, s := range []*models.Student{
		{Name: "Carol", Courses: models.CourseSet{*a}},
		{Name: "Alice", Courses: models.CourseSet{*a, *b}},
		{Name: "Bob", Courses: models.CourseSet{*b}},
	} {
		_, err := repos.StudentRepository.Save(ctx, s)
		c.Assert(err, qt.IsNil)
	}
	_, err := repos.InstructorRepository.Save(ctx, &models.Instructor{Name: "Dan", Courses: models.CourseSet{*a}})
	c.Assert(err, qt.IsNil)

	students, err := repos.StudentRepository.FindByCourse(ctx, a.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(studentNames(students), qt.DeepEquals, []string{"Alice", "Carol"})
	c.Assert(students[0].Courses.IDs(), qt.ContentEquals, []string{a.ID, b.ID})

	instructors, err := repos.InstructorRepository.FindByCourse(ctx, a.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(instructors, qt.HasLen, 1)
	c.Assert(instructors[0].Name, qt.Equals, "Dan")

	instructors, err = repos.InstructorRepository.FindByCourse(ctx, b.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(instructors, qt.HasLen, 0)
}

func TestPostgresUnknownCourseIsRejected(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repos := repositories.NewRepositories(newTestDB(c, 4))

	a := saveCourse(c, repos.CourseRepository, "Algorithms")
	missing := models.Course{ID: "missing", Name: "Ghost"}

	_, err := repos.StudentRepository.Save(ctx, &models.Student{ID: "s1", Name: "Alice", Courses: models.CourseSet{missing}})
	c.Assert(err, qt.ErrorIs, apperrors.ErrCourseNotFound)
	_, err = repos.StudentRepository.FindByID(ctx, "s1")
	c.Assert(err, qt.ErrorIs, apperrors.ErrStudentNotFound)

	saved, err := repos.InstructorRepository.Save(ctx, &models.Instructor{Name: "Dan", Courses: models.CourseSet{*a}})
	c.Assert(err, qt.IsNil)
	_, err = repos.InstructorRepository.Update(ctx, saved.ID, func(instructor *models.Instructor) error {
		instructor.Name = "Renamed"
		instructor.Courses = instructor.Courses.Add(missing)
		return nil
	})
	c.Assert(err, qt.ErrorIs, apperrors.ErrCourseNotFound)

	got, err := repos.InstructorRepository.FindByID(ctx, saved.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Name, qt.Equals, "Dan")
	c.Assert(got.Courses.IDs(), qt.DeepEquals, []string{a.ID})
}

func TestPostgresNotFound(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repos := repositories.NewRepositories(newTestDB(c, 4))

	_, err := repos.StudentRepository.FindByID(ctx, "nope")
	c.Assert(err, qt.ErrorIs, apperrors.ErrStudentNotFound)
	_, err = repos.StudentRepository.Update(ctx, "nope", func(*models.Student) error { return nil })
	c.Assert(err, qt.ErrorIs, apperrors.ErrStudentNotFound)
	c.Assert(repos.InstructorRepository.Delete(ctx, "nope"), qt.ErrorIs, apperrors.ErrInstructorNotFound)

	_, err = repos.CourseRepository.FindByID(ctx, "nope")
	c.Assert(err, qt.ErrorIs, apperrors.ErrCourseNotFound)
	_, err = repos.CourseRepository.Update(ctx, "nope", func(*models.Course) error { return nil })
	c.Assert(err, qt.ErrorIs, apperrors.ErrCourseNotFound)
	c.Assert(repos.CourseRepository.Delete(ctx, "nope"), qt.ErrorIs, apperrors.ErrCourseNotFound)
}

func TestPostgresCourseUpdateAndCascade(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repos := repositories.NewRepositories(newTestDB(c, 4))

	a := saveCourse(c, repos.CourseRepository, "Algorithms")
	b := saveCourse(c, repos.CourseRepository, "Databases")

	updated, err := repos.CourseRepository.Update(ctx, a.ID, func(course *models.Course) error {
		course.Credits = 7
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(updated.Credits, qt.Equals, 7)

	student, err := repos.StudentRepository.Save(ctx, &models.Student{Name: "Alice", Courses: models.CourseSet{*a, *b}})
	c.Assert(err, qt.IsNil)
	instructor, err := repos.InstructorRepository.Save(ctx, &models.Instructor{Name: "Dan", Courses: models.CourseSet{*a}})
	c.Assert(err, qt.IsNil)

	c.Assert(repos.CourseRepository.Delete(ctx, a.ID), qt.IsNil)

	gotStudent, err := repos.StudentRepository.FindByID(ctx, student.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(gotStudent.Courses.IDs(), qt.DeepEquals, []string{b.ID})
	gotInstructor, err := repos.InstructorRepository.FindByID(ctx, instructor.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(gotInstructor.Courses, qt.HasLen, 0)

	c.Assert(repos.StudentRepository.Delete(ctx, student.ID), qt.IsNil)
	students, err := repos.StudentRepository.FindByCourse(ctx, b.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(students, qt.HasLen, 0)
}

type discardPublisher struct{}

func (discardPublisher) Publish(events.SubscriptionEvent) {}

// More concurrent subscriptions than pool connections must all complete, and
// the row lock must keep every edge.
func TestPostgresConcurrentSubscriptions(t *testing.T) {
	c := qt.New(t)
	const poolSize, callers = 2, 8
	repos := repositories.NewRepositories(newTestDB(c, poolSize))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc := services.NewStudentService(repos.StudentRepository, repos.CourseRepository, discardPublisher{}, zerolog.Nop())
	studentID, err := svc.Add(ctx, &models.Student{Name: "Alice"})
	c.Assert(err, qt.IsNil)

	courseIDs := make([]string, callers)
	for i := range courseIDs {
		courseIDs[i] = saveCourse(c, repos.CourseRepository, fmt.Sprintf("Course %d", i)).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i, courseID := range courseIDs {
		wg.Add(1)
		go func(i int, courseID string) {
			defer wg.Done()
			errs[i] = svc.Subscribe(ctx, studentID, courseID)
		}(i, courseID)
	}
	wg.Wait()
	for i, err := range errs {
		c.Assert(err, qt.IsNil, qt.Commentf("subscription %d", i))
	}

	courses, err := svc.GetCourses(ctx, studentID)
	c.Assert(err, qt.IsNil)
	c.Assert(courses, qt.HasLen, callers)
}

func studentNames(students []*models.Student) []string {
	names := make([]string, len(students))
	for i, s := range students {
		names[i] = s.Name
	}
	return names
}
