package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	appModels "github.com/yigit/cms/internal/app/models"
	appRepos "github.com/yigit/cms/internal/app/repositories"
)

// DefaultCourses are created on startup when seeding is enabled.
var DefaultCourses = []appModels.Course{
	{Name: "Introduction to Programming", Credits: 6},
	{Name: "Data Structures", Credits: 6},
	{Name: "Databases", Credits: 5},
	{Name: "Computer Networks", Credits: 5},
	{Name: "Linear Algebra", Credits: 4},
}

// CreateDefaultData creates the default courses that don't exist yet, matched
// by name. Failures are collected and the remaining courses still tried.
func CreateDefaultData(ctx context.Context, courseRepo appRepos.CourseRepository, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default courses...")

	existing, err := courseRepo.FindAll(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Error listing existing courses")
		return err
	}
	names := make(map[string]bool, len(existing))
	for _, course := range existing {
		names[course.Name] = true
	}

	var finalErr error
	created := 0
	for _, course := range DefaultCourses {
		if names[course.Name] {
			continue
		}
		toSave := course
		saved, err := courseRepo.Save(ctx, &toSave)
		if err != nil {
			lgr.Error().Err(err).Str("name", course.Name).Msg("Error creating default course")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		created++
		lgr.Debug().Str("courseId", saved.ID).Str("name", saved.Name).Msg("Default course created")
	}

	lgr.Info().Int("created", created).Msg("Default data check/creation finished.")
	return finalErr
}
