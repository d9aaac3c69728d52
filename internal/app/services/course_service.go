package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/app/repositories"
)

// Roster sheet names
const (
	StudentsSheet    = "Students"
	InstructorsSheet = "Instructors"
)

// CourseService defines the operations on courses and their rosters
type CourseService interface {
	GetAll(ctx context.Context) ([]*models.Course, error)
	Get(ctx context.Context, id string) (*models.Course, error)
	Add(ctx context.Context, course *models.Course) (string, error)
	Update(ctx context.Context, id string, patch models.CoursePatch) error
	Delete(ctx context.Context, id string) error
	GetRoster(ctx context.Context, id string) (*models.Roster, error)
	ExportRoster(ctx context.Context, id string) ([]byte, error)
}

type courseServiceImpl struct {
	courses     repositories.CourseRepository
	students    repositories.StudentRepository
	instructors repositories.InstructorRepository
	logger      zerolog.Logger
}

// NewCourseService creates a new course service instance
func NewCourseService(repos *repositories.Repositories, logger zerolog.Logger) CourseService {
	return &courseServiceImpl{
		courses:     repos.CourseRepository,
		students:    repos.StudentRepository,
		instructors: repos.InstructorRepository,
		logger:      logger.With().Str("service", "course").Logger(),
	}
}

func (s *courseServiceImpl) GetAll(ctx context.Context) ([]*models.Course, error) {
	courses, err := s.courses.FindAll(ctx)
	if err != nil {
		logFailure(s.logger, err, "getAll").Msg("Failed to list courses")
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	return courses, nil
}

func (s *courseServiceImpl) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		logFailure(s.logger, err, "get").Str("courseId", id).Msg("Failed to get course")
		return nil, fmt.Errorf("error getting course %s: %w", id, err)
	}
	return course, nil
}

func (s *courseServiceImpl) Add(ctx context.Context, course *models.Course) (string, error) {
	toSave := *course
	toSave.ID = ""
	saved, err := s.courses.Save(ctx, &toSave)
	if err != nil {
		logFailure(s.logger, err, "add").Msg("Failed to add course")
		return "", fmt.Errorf("error adding course: %w", err)
	}

	s.logger.Info().Str("op", "add").Str("courseId", saved.ID).Str("name", saved.Name).Msg("Course added")
	return saved.ID, nil
}

func (s *courseServiceImpl) Update(ctx context.Context, id string, patch models.CoursePatch) error {
	_, err := s.courses.Update(ctx, id, func(course *models.Course) error {
		patch.ApplyTo(course)
		return nil
	})
	if err != nil {
		logFailure(s.logger, err, "update").Str("courseId", id).Msg("Failed to update course")
		return fmt.Errorf("error updating course %s: %w", id, err)
	}

	s.logger.Info().Str("op", "update").Str("courseId", id).Msg("Course updated")
	return nil
}

// Delete removes the course and every subscription to it.
func (s *courseServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		logFailure(s.logger, err, "delete").Str("courseId", id).Msg("Failed to delete course")
		return fmt.Errorf("error deleting course %s: %w", id, err)
	}

	s.logger.Info().Str("op", "delete").Str("courseId", id).Msg("Course deleted")
	return nil
}

func (s *courseServiceImpl) GetRoster(ctx context.Context, id string) (*models.Roster, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	students, err := s.students.FindByCourse(ctx, id)
	if err != nil {
		logFailure(s.logger, err, "roster").Str("courseId", id).Msg("Failed to list course students")
		return nil, fmt.Errorf("error listing students of course %s: %w", id, err)
	}
	instructors, err := s.instructors.FindByCourse(ctx, id)
	if err != nil {
		logFailure(s.logger, err, "roster").Str("courseId", id).Msg("Failed to list course instructors")
		return nil, fmt.Errorf("error listing instructors of course %s: %w", id, err)
	}

	return &models.Roster{Course: course, Students: students, Instructors: instructors}, nil
}

// ExportRoster renders the roster as an XLSX workbook with one sheet for
// students and one for instructors.
func (s *courseServiceImpl) ExportRoster(ctx context.Context, id string) ([]byte, error) {
	roster, err := s.GetRoster(ctx, id)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing roster workbook")
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), StudentsSheet); err != nil {
		return nil, fmt.Errorf("failed to name students sheet: %w", err)
	}
	if _, err := f.NewSheet(InstructorsSheet); err != nil {
		return nil, fmt.Errorf("failed to create instructors sheet: %w", err)
	}

	studentRows := make([][]interface{}, len(roster.Students))
	for i, st := range roster.Students {
		studentRows[i] = []interface{}{st.ID, st.Name}
	}
	instructorRows := make([][]interface{}, len(roster.Instructors))
	for i, in := range roster.Instructors {
		instructorRows[i] = []interface{}{in.ID, in.Name}
	}

	if err := writeSheet(f, StudentsSheet, roster.Course, studentRows); err != nil {
		return nil, err
	}
	if err := writeSheet(f, InstructorsSheet, roster.Course, instructorRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write roster workbook: %w", err)
	}

	s.logger.Info().
		Str("op", "exportRoster").
		Str("courseId", id).
		Int("students", len(studentRows)).
		Int("instructors", len(instructorRows)).
		Msg("Roster exported")
	return buf.Bytes(), nil
}

// writeSheet writes a header row and then rows, starting at A1.
func writeSheet(f *excelize.File, sheet string, course *models.Course, rows [][]interface{}) error {
	header := []interface{}{"ID", "Name", "Course ID", "Course"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address %s row %d: %w", sheet, i, err)
		}
		full := append(row, course.ID, course.Name)
		if err := f.SetSheetRow(sheet, cell, &full); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i, err)
		}
	}
	return nil
}
