// Package memory provides repositories backed by an in-process go-memdb
// database. Writers are serialized by memdb, so each Update is atomic with
// respect to other writers.
package memory

import (
	"fmt"

	"github.com/hashicorp/go-memdb"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/pkg/apperrors"
)

const (
	coursesTable     = "courses"
	studentsTable    = "students"
	instructorsTable = "instructors"

	indexID     = "id"
	indexCourse = "course"
)

// memberRecord is the stored shape of a student or instructor. Courses are
// kept by ID and resolved against the courses table on read.
type memberRecord struct {
	ID        string
	Name      string
	CourseIDs []string
}

func memberSchema(name string) *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: name,
		Indexes: map[string]*memdb.IndexSchema{
			indexID: {
				Name:    indexID,
				Unique:  true,
				Indexer: &memdb.StringFieldIndex{Field: "ID"},
			},
			indexCourse: {
				Name:         indexCourse,
				AllowMissing: true,
				Indexer:      &memdb.StringSliceFieldIndex{Field: "CourseIDs"},
			},
		},
	}
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			coursesTable: {
				Name: coursesTable,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
			studentsTable:    memberSchema(studentsTable),
			instructorsTable: memberSchema(instructorsTable),
		},
	}
}

// Store owns the memdb database shared by the memory repositories.
type Store struct {
	db *memdb.MemDB
}

// NewStore creates an empty store.
func NewStore() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	return &Store{db: db}, nil
}

func findCourse(txn *memdb.Txn, id string) (*models.Course, error) {
	raw, err := txn.First(coursesTable, indexID, id)
	if err != nil {
		return nil, fmt.Errorf("error reading course %s: %w", id, err)
	}
	if raw == nil {
		return nil, apperrors.ErrCourseNotFound
	}
	course := *raw.(*models.Course)
	return &course, nil
}

// resolveCourses turns course IDs into courses. Missing courses are skipped.
func resolveCourses(txn *memdb.Txn, ids []string) (models.CourseSet, error) {
	courses := make(models.CourseSet, 0, len(ids))
	for _, id := range ids {
		course, err := findCourse(txn, id)
		if err == apperrors.ErrCourseNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	return courses, nil
}

// courseIDs validates that every course exists and returns the de-duplicated IDs.
func courseIDs(txn *memdb.Txn, courses models.CourseSet) ([]string, error) {
	ids := make([]string, 0, len(courses))
	seen := make(map[string]bool, len(courses))
	for _, course := range courses {
		if seen[course.ID] {
			continue
		}
		if _, err := findCourse(txn, course.ID); err != nil {
			return nil, err
		}
		seen[course.ID] = true
		ids = append(ids, course.ID)
	}
	return ids, nil
}

// memberTable implements member persistence for one memdb table.
type memberTable struct {
	store    *Store
	table    string
	notFound error
}

type memberView struct {
	ID      string
	Name    string
	Courses models.CourseSet
}

func (t *memberTable) view(txn *memdb.Txn, rec *memberRecord) (*memberView, error) {
	courses, err := resolveCourses(txn, rec.CourseIDs)
	if err != nil {
		return nil, err
	}
	return &memberView{ID: rec.ID, Name: rec.Name, Courses: courses}, nil
}

func (t *memberTable) list(index string, args ...interface{}) ([]*memberView, error) {
	txn := t.store.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(t.table, index, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", t.table, err)
	}

	views := []*memberView{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		v, err := t.view(txn, raw.(*memberRecord))
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (t *memberTable) findAll() ([]*memberView, error) {
	return t.list(indexID)
}

func (t *memberTable) findByCourse(courseID string) ([]*memberView, error) {
	return t.list(indexCourse, courseID)
}

func (t *memberTable) lookup(txn *memdb.Txn, id string) (*memberRecord, error) {
	raw, err := txn.First(t.table, indexID, id)
	if err != nil {
		return nil, fmt.Errorf("error reading %s %s: %w", t.table, id, err)
	}
	if raw == nil {
		return nil, t.notFound
	}
	return raw.(*memberRecord), nil
}

func (t *memberTable) findByID(id string) (*memberView, error) {
	txn := t.store.db.Txn(false)
	defer txn.Abort()

	rec, err := t.lookup(txn, id)
	if err != nil {
		return nil, err
	}
	return t.view(txn, rec)
}

func (t *memberTable) write(txn *memdb.Txn, v *memberView) (*memberView, error) {
	ids, err := courseIDs(txn, v.Courses)
	if err != nil {
		return nil, err
	}
	rec := &memberRecord{ID: v.ID, Name: v.Name, CourseIDs: ids}
	if err := txn.Insert(t.table, rec); err != nil {
		return nil, fmt.Errorf("error writing %s %s: %w", t.table, v.ID, err)
	}
	return t.view(txn, rec)
}

func (t *memberTable) save(v *memberView, newID func() string) (*memberView, error) {
	txn := t.store.db.Txn(true)
	defer txn.Abort()

	toSave := *v
	if toSave.ID == "" {
		toSave.ID = newID()
	}
	saved, err := t.write(txn, &toSave)
	if err != nil {
		return nil, err
	}
	txn.Commit()
	return saved, nil
}

func (t *memberTable) update(id string, fn func(*memberView) error) (*memberView, error) {
	txn := t.store.db.Txn(true)
	defer txn.Abort()

	rec, err := t.lookup(txn, id)
	if err != nil {
		return nil, err
	}
	v, err := t.view(txn, rec)
	if err != nil {
		return nil, err
	}
	if err := fn(v); err != nil {
		return nil, err
	}
	v.ID = id
	updated, err := t.write(txn, v)
	if err != nil {
		return nil, err
	}
	txn.Commit()
	return updated, nil
}

func (t *memberTable) delete(id string) error {
	txn := t.store.db.Txn(true)
	defer txn.Abort()

	rec, err := t.lookup(txn, id)
	if err != nil {
		return err
	}
	if err := txn.Delete(t.table, rec); err != nil {
		return fmt.Errorf("error deleting %s %s: %w", t.table, id, err)
	}
	txn.Commit()
	return nil
}

// dropCourse removes courseID from every member of the table that holds it.
func (t *memberTable) dropCourse(txn *memdb.Txn, courseID string) error {
	it, err := txn.Get(t.table, indexCourse, courseID)
	if err != nil {
		return fmt.Errorf("error listing %s for course %s: %w", t.table, courseID, err)
	}

	// Collect first; memdb iterators must not be used across writes.
	var holders []*memberRecord
	for raw := it.Next(); raw != nil; raw = it.Next() {
		holders = append(holders, raw.(*memberRecord))
	}

	for _, rec := range holders {
		kept := make([]string, 0, len(rec.CourseIDs))
		for _, id := range rec.CourseIDs {
			if id != courseID {
				kept = append(kept, id)
			}
		}
		if err := txn.Insert(t.table, &memberRecord{ID: rec.ID, Name: rec.Name, CourseIDs: kept}); err != nil {
			return fmt.Errorf("error updating %s %s: %w", t.table, rec.ID, err)
		}
	}
	return nil
}
