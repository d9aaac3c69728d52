package services

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/yigit/cms/internal/pkg/apperrors"
)

// Services defined in this package:
// - StudentService: students and their course subscriptions
// - InstructorService: instructors and the courses they teach
// - CourseService: courses, rosters and roster export

// logFailure starts an error event for a failed operation. Failures other
// than not-found are flagged as internal.
func logFailure(lgr zerolog.Logger, err error, op string) *zerolog.Event {
	event := lgr.Error().Err(err).Str("op", op)
	if !errors.Is(err, apperrors.ErrResourceNotFound) {
		event = event.Bool("internal", true)
	}
	return event
}
