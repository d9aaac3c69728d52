package repositories

import (
	"context"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/db"
	"github.com/yigit/cms/internal/pkg/apperrors"
)

// PostgresInstructorRepository implements InstructorRepository on the instructors and
// instructor_courses tables
type PostgresInstructorRepository struct {
	store *memberStore
}

// NewInstructorRepository creates a new Postgres instructor repository
func NewInstructorRepository(database *db.PostgresDB) *PostgresInstructorRepository {
	return &PostgresInstructorRepository{
		store: newMemberStore(database, "instructors", "instructor_courses", "instructor_id", apperrors.ErrInstructorNotFound),
	}
}

func toInstructor(m *member) *models.Instructor {
	return &models.Instructor{ID: m.ID, Name: m.Name, Courses: m.Courses}
}

func toInstructors(members []*member) []*models.Instructor {
	instructors := make([]*models.Instructor, len(members))
	for i, m := range members {
		instructors[i] = toInstructor(m)
	}
	return instructors
}

// FindAll retrieves all instructors with their courses
func (r *PostgresInstructorRepository) FindAll(ctx context.Context) ([]*models.Instructor, error) {
	members, err := r.store.findAll(ctx)
	if err != nil {
		return nil, err
	}
	return toInstructors(members), nil
}

// FindByID retrieves an instructor with its courses
func (r *PostgresInstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	m, err := r.store.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInstructor(m), nil
}

// FindByCourse retrieves the instructors teaching a course
func (r *PostgresInstructorRepository) FindByCourse(ctx context.Context, courseID string) ([]*models.Instructor, error) {
	members, err := r.store.findByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return toInstructors(members), nil
}

// Save creates or overwrites an instructor and its course set
func (r *PostgresInstructorRepository) Save(ctx context.Context, instructor *models.Instructor) (*models.Instructor, error) {
	m, err := r.store.save(ctx, &member{ID: instructor.ID, Name: instructor.Name, Courses: instructor.Courses})
	if err != nil {
		return nil, err
	}
	return toInstructor(m), nil
}

// Update applies fn to the locked instructor row and persists the result
func (r *PostgresInstructorRepository) Update(ctx context.Context, id string, fn func(*models.Instructor) error) (*models.Instructor, error) {
	m, err := r.store.update(ctx, id, func(m *member) error {
		instructor := toInstructor(m)
		if err := fn(instructor); err != nil {
			return err
		}
		m.Name, m.Courses = instructor.Name, instructor.Courses
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toInstructor(m), nil
}

// Delete removes an instructor and its teaching assignments
func (r *PostgresInstructorRepository) Delete(ctx context.Context, id string) error {
	return r.store.delete(ctx, id)
}
