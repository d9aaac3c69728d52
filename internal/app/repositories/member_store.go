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
	"github.com/yigit/cms/internal/pkg/dberrors"
	"github.com/yigit/cms/internal/pkg/logger"
)

// member is the row shape shared by students and instructors: a named entity
// with a set of courses stored in a join table.
type member struct {
	ID      string
	Name    string
	Courses models.CourseSet
}

// memberStore implements the member persistence for one entity table and its
// join table, e.g. students + student_courses.
type memberStore struct {
	db        *db.PostgresDB
	sb        squirrel.StatementBuilderType
	table     string
	joinTable string
	fkColumn  string
	notFound  error
}

func newMemberStore(database *db.PostgresDB, table, joinTable, fkColumn string, notFound error) *memberStore {
	return &memberStore{
		db:        database,
		sb:        squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		table:     table,
		joinTable: joinTable,
		fkColumn:  fkColumn,
		notFound:  notFound,
	}
}

func (s *memberStore) findAll(ctx context.Context) ([]*member, error) {
	return s.query(ctx, s.sb.Select("id", "name").From(s.table).OrderBy("name ASC", "id ASC"))
}

func (s *memberStore) findByCourse(ctx context.Context, courseID string) ([]*member, error) {
	sub := s.sb.Select(s.fkColumn).From(s.joinTable).Where(squirrel.Eq{"course_id": courseID})
	subSQL, subArgs, err := sub.PlaceholderFormat(squirrel.Question).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s roster subquery: %w", s.table, err)
	}
	return s.query(ctx, s.sb.Select("id", "name").
		From(s.table).
		Where("id IN ("+subSQL+")", subArgs...).
		OrderBy("name ASC", "id ASC"))
}

// query loads members and then their courses with a single join query.
func (s *memberStore) query(ctx context.Context, builder squirrel.SelectBuilder) ([]*member, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", s.table, err)
	}

	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("table", s.table).Msg("Error executing member query")
		return nil, fmt.Errorf("error querying %s: %w", s.table, err)
	}
	defer rows.Close()

	members := []*member{}
	byID := map[string]*member{}
	for rows.Next() {
		m := &member{Courses: models.CourseSet{}}
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("error scanning %s row: %w", s.table, err)
		}
		members = append(members, m)
		byID[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", s.table, err)
	}
	if len(members) == 0 {
		return members, nil
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	edges, err := s.coursesFor(ctx, s.db.Pool, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if m, ok := byID[e.memberID]; ok {
			m.Courses = append(m.Courses, e.course)
		}
	}

	return members, nil
}

type edge struct {
	memberID string
	course   models.Course
}

func (s *memberStore) coursesFor(ctx context.Context, q db.Querier, memberIDs []string) ([]edge, error) {
	sql, args, err := s.sb.Select("j."+s.fkColumn, "c.id", "c.name", "c.description", "c.credits").
		From(s.joinTable + " j").
		Join("courses c ON c.id = j.course_id").
		Where(squirrel.Eq{"j." + s.fkColumn: memberIDs}).
		OrderBy("j.created_at ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s courses query: %w", s.table, err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", s.joinTable, err)
	}
	defer rows.Close()

	var edges []edge
	for rows.Next() {
		var e edge
		if err := rows.Scan(&e.memberID, &e.course.ID, &e.course.Name, &e.course.Description, &e.course.Credits); err != nil {
			return nil, fmt.Errorf("error scanning %s row: %w", s.joinTable, err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func (s *memberStore) findByID(ctx context.Context, q db.Querier, id string, forUpdate bool) (*member, error) {
	builder := s.sb.Select("id", "name").From(s.table).Where(squirrel.Eq{"id": id}).Limit(1)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get %s query: %w", s.table, err)
	}

	m := &member{Courses: models.CourseSet{}}
	if err := q.QueryRow(ctx, sql, args...).Scan(&m.ID, &m.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.notFound
		}
		logger.Error().Err(err).Str("table", s.table).Str("id", id).Msg("Error scanning member row")
		return nil, fmt.Errorf("error getting %s by ID: %w", s.table, err)
	}

	edges, err := s.coursesFor(ctx, q, []string{id})
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		m.Courses = append(m.Courses, e.course)
	}
	return m, nil
}

func (s *memberStore) get(ctx context.Context, id string) (*member, error) {
	return s.findByID(ctx, s.db.Pool, id, false)
}

// save upserts the row and rewrites the join rows to match m.Courses.
func (s *memberStore) save(ctx context.Context, m *member) (*member, error) {
	saved := *m
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := s.sb.Insert(s.table).
			Columns("id", "name").
			Values(saved.ID, saved.Name).
			Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build save %s query: %w", s.table, err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error saving %s: %w", s.table, err)
		}

		edges, err := s.coursesFor(ctx, tx, []string{saved.ID})
		if err != nil {
			return err
		}
		current := make([]string, len(edges))
		for i, e := range edges {
			current[i] = e.course.ID
		}
		return s.syncCourses(ctx, tx, saved.ID, current, saved.Courses.IDs())
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, saved.ID)
}

// update locks the row, applies fn and persists name and course set in the
// same transaction.
func (s *memberStore) update(ctx context.Context, id string, fn func(*member) error) (*member, error) {
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		m, err := s.findByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		before := m.Courses.IDs()
		if err := fn(m); err != nil {
			return err
		}

		sql, args, err := s.sb.Update(s.table).
			Set("name", m.Name).
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update %s query: %w", s.table, err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error updating %s: %w", s.table, err)
		}

		return s.syncCourses(ctx, tx, id, before, m.Courses.IDs())
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *memberStore) syncCourses(ctx context.Context, tx pgx.Tx, memberID string, current, desired []string) error {
	added, removed := diffCourseIDs(current, desired)

	if len(removed) > 0 {
		sql, args, err := s.sb.Delete(s.joinTable).
			Where(squirrel.Eq{s.fkColumn: memberID, "course_id": removed}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build delete %s query: %w", s.joinTable, err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error deleting %s rows: %w", s.joinTable, err)
		}
	}

	for _, courseID := range added {
		sql, args, err := s.sb.Insert(s.joinTable).
			Columns(s.fkColumn, "course_id").
			Values(memberID, courseID).
			Suffix("ON CONFLICT DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert %s query: %w", s.joinTable, err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			if dberrors.IsForeignKeyViolation(err, "") {
				return apperrors.ErrCourseNotFound
			}
			return fmt.Errorf("error inserting %s row: %w", s.joinTable, err)
		}
	}

	return nil
}

func (s *memberStore) delete(ctx context.Context, id string) error {
	sql, args, err := s.sb.Delete(s.table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete %s query: %w", s.table, err)
	}

	cmdTag, err := s.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("table", s.table).Str("id", id).Msg("Error executing delete query")
		return fmt.Errorf("error deleting from %s: %w", s.table, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return s.notFound
	}
	return nil
}

// diffCourseIDs returns the IDs in desired but not in current, and those in
// current but not in desired. Both results keep the input order and contain
// no duplicates.
func diffCourseIDs(current, desired []string) (added, removed []string) {
	have := make(map[string]bool, len(current))
	for _, id := range current {
		have[id] = true
	}
	want := make(map[string]bool, len(desired))
	for _, id := range desired {
		if !want[id] && !have[id] {
			added = append(added, id)
		}
		want[id] = true
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		if !want[id] && !seen[id] {
			removed = append(removed, id)
		}
		seen[id] = true
	}
	return added, removed
}
