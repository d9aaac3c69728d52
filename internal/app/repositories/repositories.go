package repositories

import (
	"context"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/db"
)

// StudentRepository is the persistence port for students.
//
// Save creates or updates by ID and assigns a new ID when it is empty. The
// course set is stored by course ID; saving a set that names an unknown course
// fails with apperrors.ErrCourseNotFound. Update runs fn against the stored
// student inside one transaction and persists the result, so concurrent
// updates of the same student do not lose writes. fn holds the row lock and
// must not call back into a repository.
type StudentRepository interface {
	FindAll(ctx context.Context) ([]*models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByCourse(ctx context.Context, courseID string) ([]*models.Student, error)
	Save(ctx context.Context, student *models.Student) (*models.Student, error)
	Update(ctx context.Context, id string, fn func(*models.Student) error) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

// InstructorRepository is the persistence port for instructors. It has the
// same semantics as StudentRepository.
type InstructorRepository interface {
	FindAll(ctx context.Context) ([]*models.Instructor, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	FindByCourse(ctx context.Context, courseID string) ([]*models.Instructor, error)
	Save(ctx context.Context, instructor *models.Instructor) (*models.Instructor, error)
	Update(ctx context.Context, id string, fn func(*models.Instructor) error) (*models.Instructor, error)
	Delete(ctx context.Context, id string) error
}

// CourseRepository is the persistence port for courses. Deleting a course
// also removes it from every student and instructor.
type CourseRepository interface {
	FindAll(ctx context.Context) ([]*models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Save(ctx context.Context, course *models.Course) (*models.Course, error)
	Update(ctx context.Context, id string, fn func(*models.Course) error) (*models.Course, error)
	Delete(ctx context.Context, id string) error
}

// Repositories holds all the repository instances
type Repositories struct {
	StudentRepository    StudentRepository
	InstructorRepository InstructorRepository
	CourseRepository     CourseRepository
}

// NewRepositories initializes the Postgres-backed repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		StudentRepository:    NewStudentRepository(database),
		InstructorRepository: NewInstructorRepository(database),
		CourseRepository:     NewCourseRepository(database),
	}
}
