package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/app/repositories"
	"github.com/yigit/cms/internal/pkg/events"
)

// InstructorService defines the operations on instructors and their course subscriptions
type InstructorService interface {
	GetAll(ctx context.Context) ([]*models.Instructor, error)
	Get(ctx context.Context, id string) (*models.Instructor, error)
	Add(ctx context.Context, instructor *models.Instructor) (string, error)
	Update(ctx context.Context, id string, patch models.InstructorPatch) error
	Delete(ctx context.Context, id string) error
	GetCourses(ctx context.Context, id string) ([]models.Course, error)
	Subscribe(ctx context.Context, id, courseID string) error
	Unsubscribe(ctx context.Context, id, courseID string) error
}

type instructorServiceImpl struct {
	instructors repositories.InstructorRepository
	courses     repositories.CourseRepository
	publisher   events.Publisher
	logger      zerolog.Logger
}

// NewInstructorService creates a new instructor service instance
func NewInstructorService(
	instructors repositories.InstructorRepository,
	courses repositories.CourseRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) InstructorService {
	return &instructorServiceImpl{
		instructors: instructors,
		courses:     courses,
		publisher:   publisher,
		logger:      logger.With().Str("service", "instructor").Logger(),
	}
}

func (s *instructorServiceImpl) GetAll(ctx context.Context) ([]*models.Instructor, error) {
	instructors, err := s.instructors.FindAll(ctx)
	if err != nil {
		logFailure(s.logger, err, "getAll").Msg("Failed to list instructors")
		return nil, fmt.Errorf("error listing instructors: %w", err)
	}
	return instructors, nil
}

func (s *instructorServiceImpl) Get(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.instructors.FindByID(ctx, id)
	if err != nil {
		logFailure(s.logger, err, "get").Str("instructorId", id).Msg("Failed to get instructor")
		return nil, fmt.Errorf("error getting instructor %s: %w", id, err)
	}
	return instructor, nil
}

// Add stores a new instructor and returns its generated ID. Any ID on the
// input is ignored.
func (s *instructorServiceImpl) Add(ctx context.Context, instructor *models.Instructor) (string, error) {
	s.logger.Info().Str("op", "add").Str("name", instructor.Name).Msg("Adding instructor")

	toSave := *instructor
	toSave.ID = ""
	saved, err := s.instructors.Save(ctx, &toSave)
	if err != nil {
		logFailure(s.logger, err, "add").Msg("Failed to add instructor")
		return "", fmt.Errorf("error adding instructor: %w", err)
	}

	s.logger.Info().Str("op", "add").Str("instructorId", saved.ID).Msg("Instructor added")
	return saved.ID, nil
}

// Update applies the set fields of patch to the stored instructor.
func (s *instructorServiceImpl) Update(ctx context.Context, id string, patch models.InstructorPatch) error {
	s.logger.Info().Str("op", "update").Str("instructorId", id).Msg("Updating instructor")

	_, err := s.instructors.Update(ctx, id, func(instructor *models.Instructor) error {
		patch.ApplyTo(instructor)
		return nil
	})
	if err != nil {
		logFailure(s.logger, err, "update").Str("instructorId", id).Msg("Failed to update instructor")
		return fmt.Errorf("error updating instructor %s: %w", id, err)
	}

	s.logger.Info().Str("op", "update").Str("instructorId", id).Msg("Instructor updated")
	return nil
}

func (s *instructorServiceImpl) Delete(ctx context.Context, id string) error {
	s.logger.Info().Str("op", "delete").Str("instructorId", id).Msg("Deleting instructor")

	if err := s.instructors.Delete(ctx, id); err != nil {
		logFailure(s.logger, err, "delete").Str("instructorId", id).Msg("Failed to delete instructor")
		return fmt.Errorf("error deleting instructor %s: %w", id, err)
	}

	s.logger.Info().Str("op", "delete").Str("instructorId", id).Msg("Instructor deleted")
	return nil
}

// GetCourses returns the courses of the instructor, or ErrInstructorNotFound.
func (s *instructorServiceImpl) GetCourses(ctx context.Context, id string) ([]models.Course, error) {
	instructor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if instructor.Courses == nil {
		return []models.Course{}, nil
	}
	return instructor.Courses, nil
}

// Subscribe assigns the course to the instructor. The instructor is looked up
// before the course so a missing instructor is reported first.
func (s *instructorServiceImpl) Subscribe(ctx context.Context, id, courseID string) error {
	return s.changeSubscription(ctx, "subscribe", id, courseID, func(set models.CourseSet, course models.Course) models.CourseSet {
		return set.Add(course)
	}, events.EventSubscribed)
}

// Unsubscribe removes the course from the instructor. Removing a course the
// instructor does not teach succeeds without change.
func (s *instructorServiceImpl) Unsubscribe(ctx context.Context, id, courseID string) error {
	return s.changeSubscription(ctx, "unsubscribe", id, courseID, func(set models.CourseSet, course models.Course) models.CourseSet {
		return set.Remove(course.ID)
	}, events.EventUnsubscribed)
}

func (s *instructorServiceImpl) changeSubscription(
	ctx context.Context,
	op, id, courseID string,
	change func(models.CourseSet, models.Course) models.CourseSet,
	eventType events.EventType,
) error {
	s.logger.Info().Str("op", op).Str("instructorId", id).Str("courseId", courseID).Msg("Changing instructor subscription")

	fail := func(err error) error {
		logFailure(s.logger, err, op).Str("instructorId", id).Str("courseId", courseID).Msg("Failed to change instructor subscription")
		return fmt.Errorf("error in %s of instructor %s to course %s: %w", op, id, courseID, err)
	}

	// Lookups stay outside Update: its callback runs while the instructor row is
	// locked and must not wait on another connection.
	if _, err := s.instructors.FindByID(ctx, id); err != nil {
		return fail(err)
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return fail(err)
	}

	_, err = s.instructors.Update(ctx, id, func(instructor *models.Instructor) error {
		instructor.Courses = change(instructor.Courses, *course)
		return nil
	})
	if err != nil {
		return fail(err)
	}

	s.publisher.Publish(events.SubscriptionEvent{
		Type:       eventType,
		EntityKind: events.KindInstructor,
		EntityID:   id,
		CourseID:   courseID,
	})
	s.logger.Info().Str("op", op).Str("instructorId", id).Str("courseId", courseID).Msg("Instructor subscription changed")
	return nil
}
