package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/app/repositories"
	"github.com/yigit/cms/internal/pkg/events"
)

// StudentService defines the operations on students and their course subscriptions
type StudentService interface {
	GetAll(ctx context.Context) ([]*models.Student, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	Add(ctx context.Context, student *models.Student) (string, error)
	Update(ctx context.Context, id string, patch models.StudentPatch) error
	Delete(ctx context.Context, id string) error
	GetCourses(ctx context.Context, id string) ([]models.Course, error)
	Subscribe(ctx context.Context, id, courseID string) error
	Unsubscribe(ctx context.Context, id, courseID string) error
}

type studentServiceImpl struct {
	students  repositories.StudentRepository
	courses   repositories.CourseRepository
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewStudentService creates a new student service instance
func NewStudentService(
	students repositories.StudentRepository,
	courses repositories.CourseRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) StudentService {
	return &studentServiceImpl{
		students:  students,
		courses:   courses,
		publisher: publisher,
		logger:    logger.With().Str("service", "student").Logger(),
	}
}

func (s *studentServiceImpl) GetAll(ctx context.Context) ([]*models.Student, error) {
	students, err := s.students.FindAll(ctx)
	if err != nil {
		logFailure(s.logger, err, "getAll").Msg("Failed to list students")
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	return students, nil
}

func (s *studentServiceImpl) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		logFailure(s.logger, err, "get").Str("studentId", id).Msg("Failed to get student")
		return nil, fmt.Errorf("error getting student %s: %w", id, err)
	}
	return student, nil
}

// Add stores a new student and returns its generated ID. Any ID on the
// input is ignored.
func (s *studentServiceImpl) Add(ctx context.Context, student *models.Student) (string, error) {
	s.logger.Info().Str("op", "add").Str("name", student.Name).Msg("Adding student")

	toSave := *student
	toSave.ID = ""
	saved, err := s.students.Save(ctx, &toSave)
	if err != nil {
		logFailure(s.logger, err, "add").Msg("Failed to add student")
		return "", fmt.Errorf("error adding student: %w", err)
	}

	s.logger.Info().Str("op", "add").Str("studentId", saved.ID).Msg("Student added")
	return saved.ID, nil
}

// Update applies the set fields of patch to the stored student.
func (s *studentServiceImpl) Update(ctx context.Context, id string, patch models.StudentPatch) error {
	s.logger.Info().Str("op", "update").Str("studentId", id).Msg("Updating student")

	_, err := s.students.Update(ctx, id, func(student *models.Student) error {
		patch.ApplyTo(student)
		return nil
	})
	if err != nil {
		logFailure(s.logger, err, "update").Str("studentId", id).Msg("Failed to update student")
		return fmt.Errorf("error updating student %s: %w", id, err)
	}

	s.logger.Info().Str("op", "update").Str("studentId", id).Msg("Student updated")
	return nil
}

func (s *studentServiceImpl) Delete(ctx context.Context, id string) error {
	s.logger.Info().Str("op", "delete").Str("studentId", id).Msg("Deleting student")

	if err := s.students.Delete(ctx, id); err != nil {
		logFailure(s.logger, err, "delete").Str("studentId", id).Msg("Failed to delete student")
		return fmt.Errorf("error deleting student %s: %w", id, err)
	}

	s.logger.Info().Str("op", "delete").Str("studentId", id).Msg("Student deleted")
	return nil
}

// GetCourses returns the courses of the student, or ErrStudentNotFound.
func (s *studentServiceImpl) GetCourses(ctx context.Context, id string) ([]models.Course, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if student.Courses == nil {
		return []models.Course{}, nil
	}
	return student.Courses, nil
}

// Subscribe enrolls the student in the course. The student is looked up
// before the course so a missing student is reported first.
func (s *studentServiceImpl) Subscribe(ctx context.Context, id, courseID string) error {
	return s.changeSubscription(ctx, "subscribe", id, courseID, func(set models.CourseSet, course models.Course) models.CourseSet {
		return set.Add(course)
	}, events.EventSubscribed)
}

// Unsubscribe removes the course from the student. Removing a course the
// student is not enrolled in succeeds without change.
func (s *studentServiceImpl) Unsubscribe(ctx context.Context, id, courseID string) error {
	return s.changeSubscription(ctx, "unsubscribe", id, courseID, func(set models.CourseSet, course models.Course) models.CourseSet {
		return set.Remove(course.ID)
	}, events.EventUnsubscribed)
}

func (s *studentServiceImpl) changeSubscription(
	ctx context.Context,
	op, id, courseID string,
	change func(models.CourseSet, models.Course) models.CourseSet,
	eventType events.EventType,
) error {
	s.logger.Info().Str("op", op).Str("studentId", id).Str("courseId", courseID).Msg("Changing student subscription")

	fail := func(err error) error {
		logFailure(s.logger, err, op).Str("studentId", id).Str("courseId", courseID).Msg("Failed to change student subscription")
		return fmt.Errorf("error in %s of student %s to course %s: %w", op, id, courseID, err)
	}

	// Lookups stay outside Update: its callback runs while the student row is
	// locked and must not wait on another connection.
	if _, err := s.students.FindByID(ctx, id); err != nil {
		return fail(err)
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return fail(err)
	}

	_, err = s.students.Update(ctx, id, func(student *models.Student) error {
		student.Courses = change(student.Courses, *course)
		return nil
	})
	if err != nil {
		return fail(err)
	}

	s.publisher.Publish(events.SubscriptionEvent{
		Type:       eventType,
		EntityKind: events.KindStudent,
		EntityID:   id,
		CourseID:   courseID,
	})
	s.logger.Info().Str("op", op).Str("studentId", id).Str("courseId", courseID).Msg("Student subscription changed")
	return nil
}
