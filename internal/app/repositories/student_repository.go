package repositories

import (
	"context"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/db"
	"github.com/yigit/cms/internal/pkg/apperrors"
)

// PostgresStudentRepository implements StudentRepository on the students and
// student_courses tables
type PostgresStudentRepository struct {
	store *memberStore
}

// NewStudentRepository creates a new Postgres student repository
func NewStudentRepository(database *db.PostgresDB) *PostgresStudentRepository {
	return &PostgresStudentRepository{
		store: newMemberStore(database, "students", "student_courses", "student_id", apperrors.ErrStudentNotFound),
	}
}

func toStudent(m *member) *models.Student {
	return &models.Student{ID: m.ID, Name: m.Name, Courses: m.Courses}
}

func toStudents(members []*member) []*models.Student {
	students := make([]*models.Student, len(members))
	for i, m := range members {
		students[i] = toStudent(m)
	}
	return students
}

// FindAll retrieves all students with their courses
func (r *PostgresStudentRepository) FindAll(ctx context.Context) ([]*models.Student, error) {
	members, err := r.store.findAll(ctx)
	if err != nil {
		return nil, err
	}
	return toStudents(members), nil
}

// FindByID retrieves a student with its courses
func (r *PostgresStudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	m, err := r.store.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStudent(m), nil
}

// FindByCourse retrieves the students enrolled in a course
func (r *PostgresStudentRepository) FindByCourse(ctx context.Context, courseID string) ([]*models.Student, error) {
	members, err := r.store.findByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return toStudents(members), nil
}

// Save creates or overwrites a student and its course set
func (r *PostgresStudentRepository) Save(ctx context.Context, student *models.Student) (*models.Student, error) {
	m, err := r.store.save(ctx, &member{ID: student.ID, Name: student.Name, Courses: student.Courses})
	if err != nil {
		return nil, err
	}
	return toStudent(m), nil
}

// Update applies fn to the locked student row and persists the result
func (r *PostgresStudentRepository) Update(ctx context.Context, id string, fn func(*models.Student) error) (*models.Student, error) {
	m, err := r.store.update(ctx, id, func(m *member) error {
		student := toStudent(m)
		if err := fn(student); err != nil {
			return err
		}
		m.Name, m.Courses = student.Name, student.Courses
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toStudent(m), nil
}

// Delete removes a student and its enrollments
func (r *PostgresStudentRepository) Delete(ctx context.Context, id string) error {
	return r.store.delete(ctx, id)
}
