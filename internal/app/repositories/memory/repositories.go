package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/app/repositories"
	"github.com/yigit/cms/internal/pkg/apperrors"
)

// NewRepositories builds the memory-backed repositories over a fresh store.
func NewRepositories() (*repositories.Repositories, error) {
	store, err := NewStore()
	if err != nil {
		return nil, err
	}
	return &repositories.Repositories{
		StudentRepository:    NewStudentRepository(store),
		InstructorRepository: NewInstructorRepository(store),
		CourseRepository:     NewCourseRepository(store),
	}, nil
}

// StudentRepository stores students in memdb.
type StudentRepository struct {
	t *memberTable
}

// NewStudentRepository creates a student repository on store.
func NewStudentRepository(store *Store) *StudentRepository {
	return &StudentRepository{t: &memberTable{store: store, table: studentsTable, notFound: apperrors.ErrStudentNotFound}}
}

func toStudent(v *memberView) *models.Student {
	return &models.Student{ID: v.ID, Name: v.Name, Courses: v.Courses}
}

func toStudents(views []*memberView) []*models.Student {
	students := make([]*models.Student, len(views))
	for i, v := range views {
		students[i] = toStudent(v)
	}
	return students
}

func (r *StudentRepository) FindAll(ctx context.Context) ([]*models.Student, error) {
	views, err := r.t.findAll()
	if err != nil {
		return nil, err
	}
	return toStudents(views), nil
}

func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	v, err := r.t.findByID(id)
	if err != nil {
		return nil, err
	}
	return toStudent(v), nil
}

func (r *StudentRepository) FindByCourse(ctx context.Context, courseID string) ([]*models.Student, error) {
	views, err := r.t.findByCourse(courseID)
	if err != nil {
		return nil, err
	}
	return toStudents(views), nil
}

func (r *StudentRepository) Save(ctx context.Context, student *models.Student) (*models.Student, error) {
	v, err := r.t.save(&memberView{ID: student.ID, Name: student.Name, Courses: student.Courses}, uuid.NewString)
	if err != nil {
		return nil, err
	}
	return toStudent(v), nil
}

func (r *StudentRepository) Update(ctx context.Context, id string, fn func(*models.Student) error) (*models.Student, error) {
	v, err := r.t.update(id, func(v *memberView) error {
		s := toStudent(v)
		if err := fn(s); err != nil {
			return err
		}
		v.Name, v.Courses = s.Name, s.Courses
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toStudent(v), nil
}

func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	return r.t.delete(id)
}

// InstructorRepository stores instructors in memdb.
type InstructorRepository struct {
	t *memberTable
}

// NewInstructorRepository creates an instructor repository on store.
func NewInstructorRepository(store *Store) *InstructorRepository {
	return &InstructorRepository{t: &memberTable{store: store, table: instructorsTable, notFound: apperrors.ErrInstructorNotFound}}
}

func toInstructor(v *memberView) *models.Instructor {
	return &models.Instructor{ID: v.ID, Name: v.Name, Courses: v.Courses}
}

func toInstructors(views []*memberView) []*models.Instructor {
	instructors := make([]*models.Instructor, len(views))
	for i, v := range views {
		instructors[i] = toInstructor(v)
	}
	return instructors
}

func (r *InstructorRepository) FindAll(ctx context.Context) ([]*models.Instructor, error) {
	views, err := r.t.findAll()
	if err != nil {
		return nil, err
	}
	return toInstructors(views), nil
}

func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	v, err := r.t.findByID(id)
	if err != nil {
		return nil, err
	}
	return toInstructor(v), nil
}

func (r *InstructorRepository) FindByCourse(ctx context.Context, courseID string) ([]*models.Instructor, error) {
	views, err := r.t.findByCourse(courseID)
	if err != nil {
		return nil, err
	}
	return toInstructors(views), nil
}

func (r *InstructorRepository) Save(ctx context.Context, instructor *models.Instructor) (*models.Instructor, error) {
	v, err := r.t.save(&memberView{ID: instructor.ID, Name: instructor.Name, Courses: instructor.Courses}, uuid.NewString)
	if err != nil {
		return nil, err
	}
	return toInstructor(v), nil
}

func (r *InstructorRepository) Update(ctx context.Context, id string, fn func(*models.Instructor) error) (*models.Instructor, error) {
	v, err := r.t.update(id, func(v *memberView) error {
		in := toInstructor(v)
		if err := fn(in); err != nil {
			return err
		}
		v.Name, v.Courses = in.Name, in.Courses
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toInstructor(v), nil
}

func (r *InstructorRepository) Delete(ctx context.Context, id string) error {
	return r.t.delete(id)
}

// CourseRepository stores courses in memdb.
type CourseRepository struct {
	store *Store
}

// NewCourseRepository creates a course repository on store.
func NewCourseRepository(store *Store) *CourseRepository {
	return &CourseRepository{store: store}
}

func (r *CourseRepository) FindAll(ctx context.Context) ([]*models.Course, error) {
	txn := r.store.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(coursesTable, indexID)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	courses := []*models.Course{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		course := *raw.(*models.Course)
		courses = append(courses, &course)
	}
	return courses, nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	txn := r.store.db.Txn(false)
	defer txn.Abort()
	return findCourse(txn, id)
}

func (r *CourseRepository) Save(ctx context.Context, course *models.Course) (*models.Course, error) {
	saved := *course
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}

	txn := r.store.db.Txn(true)
	defer txn.Abort()

	stored := saved
	if err := txn.Insert(coursesTable, &stored); err != nil {
		return nil, fmt.Errorf("error saving course %s: %w", saved.ID, err)
	}
	txn.Commit()
	return &saved, nil
}

func (r *CourseRepository) Update(ctx context.Context, id string, fn func(*models.Course) error) (*models.Course, error) {
	txn := r.store.db.Txn(true)
	defer txn.Abort()

	course, err := findCourse(txn, id)
	if err != nil {
		return nil, err
	}
	if err := fn(course); err != nil {
		return nil, err
	}
	course.ID = id

	stored := *course
	if err := txn.Insert(coursesTable, &stored); err != nil {
		return nil, fmt.Errorf("error updating course %s: %w", id, err)
	}
	txn.Commit()
	return course, nil
}

// Delete removes the course and drops it from every student and instructor
// in the same transaction.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	txn := r.store.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(coursesTable, indexID, id)
	if err != nil {
		return fmt.Errorf("error reading course %s: %w", id, err)
	}
	if raw == nil {
		return apperrors.ErrCourseNotFound
	}
	if err := txn.Delete(coursesTable, raw); err != nil {
		return fmt.Errorf("error deleting course %s: %w", id, err)
	}

	for _, table := range []string{studentsTable, instructorsTable} {
		t := &memberTable{store: r.store, table: table}
		if err := t.dropCourse(txn, id); err != nil {
			return err
		}
	}

	txn.Commit()
	return nil
}

var (
	_ repositories.StudentRepository    = (*StudentRepository)(nil)
	_ repositories.InstructorRepository = (*InstructorRepository)(nil)
	_ repositories.CourseRepository     = (*CourseRepository)(nil)
)
