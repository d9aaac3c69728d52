package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/db"
	"github.com/yigit/cms/internal/pkg/apperrors"
	"github.com/yigit/cms/internal/pkg/logger"
)

var courseColumns = []string{"id", "name", "description", "credits"}

// PostgresCourseRepository implements CourseRepository on Postgres
type PostgresCourseRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new Postgres course repository
func NewCourseRepository(database *db.PostgresDB) *PostgresCourseRepository {
	return &PostgresCourseRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	course := &models.Course{}
	if err := row.Scan(&course.ID, &course.Name, &course.Description, &course.Credits); err != nil {
		return nil, err
	}
	return course, nil
}

// FindAll retrieves all courses ordered by name
func (r *PostgresCourseRepository) FindAll(ctx context.Context) ([]*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).
		From("courses").
		OrderBy("name ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get all courses query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing get all courses query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}

	return courses, nil
}

// FindByID retrieves a course by ID
func (r *PostgresCourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	return r.findByID(ctx, r.db.Pool, id, false)
}

func (r *PostgresCourseRepository) findByID(ctx context.Context, q db.Querier, id string, forUpdate bool) (*models.Course, error) {
	builder := r.sb.Select(courseColumns...).
		From("courses").
		Where(squirrel.Eq{"id": id}).
		Limit(1)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Str("courseId", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error getting course by ID: %w", err)
	}

	return course, nil
}

// Save inserts the course, or overwrites it when the ID already exists
func (r *PostgresCourseRepository) Save(ctx context.Context, course *models.Course) (*models.Course, error) {
	saved := *course
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}

	sql, args, err := r.sb.Insert("courses").
		Columns(courseColumns...).
		Values(saved.ID, saved.Name, saved.Description, saved.Credits).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description, credits = EXCLUDED.credits").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build save course query: %w", err)
	}

	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("courseId", saved.ID).Msg("Error executing save course query")
		return nil, fmt.Errorf("error saving course: %w", err)
	}

	return &saved, nil
}

// Update locks the course row, applies fn and writes the result back
func (r *PostgresCourseRepository) Update(ctx context.Context, id string, fn func(*models.Course) error) (*models.Course, error) {
	var updated *models.Course
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		course, err := r.findByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := fn(course); err != nil {
			return err
		}

		sql, args, err := r.sb.Update("courses").
			SetMap(map[string]interface{}{
				"name":        course.Name,
				"description": course.Description,
				"credits":     course.Credits,
			}).
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update course query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error updating course: %w", err)
		}

		course.ID = id
		updated = course
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a course. Join rows go with it through ON DELETE CASCADE.
func (r *PostgresCourseRepository) Delete(ctx context.Context, id string) error {
	sql, args, err := r.sb.Delete("courses").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete course query: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("courseId", id).Msg("Error executing delete course query")
		return fmt.Errorf("error deleting course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}
