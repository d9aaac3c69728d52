package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/app/repositories"
	"github.com/yigit/cms/internal/pkg/apperrors"
)

func newRepos(c *qt.C) *repositories.Repositories {
	repos, err := NewRepositories()
	c.Assert(err, qt.IsNil)
	return repos
}

func saveCourse(c *qt.C, repos *repositories.Repositories, id, name string) models.Course {
	course, err := repos.CourseRepository.Save(context.Background(), &models.Course{ID: id, Name: name, Credits: 3})
	c.Assert(err, qt.IsNil)
	return *course
}

func TestCourseCRUD(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repos := newRepos(c)

	created, err := repos.CourseRepository.Save(ctx, &models.Course{Name: "Algebra", Credits: 4})
	c.Assert(err, qt.IsNil)
	c.Assert(created.ID, qt.Not(qt.Equals), "")

	got, err := repos.CourseRepository.FindByID(ctx, created.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, created)

	updated, err := repos.CourseRepository.Update(ctx, created.ID, func(course *models.Course) error {
		course.Credits = 6
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(updated.Credits, qt.Equals, 6)

	// Mutating a returned value must not leak into the store.
	got.Name = "changed"
	again, err := repos.CourseRepository.FindByID(ctx, created.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(again.Name, qt.Equals, "Algebra")

	all, err := repos.CourseRepository.FindAll(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.HasLen, 1)

	c.Assert(repos.CourseRepository.Delete(ctx, created.ID), qt.IsNil)
	_, err = repos.CourseRepository.FindByID(ctx, created.ID)
	c.Assert(err, qt.ErrorIs, apperrors.ErrCourseNotFound)
	c.Assert(repos.CourseRepository.Delete(ctx, created.ID), qt.ErrorIs, apperrors.ErrCourseNotFound)
}

func TestStudentSaveAndFind(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repos := newRepos(c)
	c1 := saveCourse(c, repos, "c1", "Math")

	saved, err := repos.StudentRepository.Save(ctx, &models.Student{ID: "s1", Name: "Alice", Courses: models.CourseSet{c1, c1}})
	c.Assert(err, qt.IsNil)
	c.Assert(saved.Courses.IDs(), qt.DeepEquals, []string{"c1"})

	got, err := repos.StudentRepository.FindByID(ctx, "s1")
	c.Assert(err, qt.IsNil)
	c.Assert(got.Name, qt.Equals, "Alice")
	c.Assert(got.Courses, qt.DeepEquals, models.CourseSet{c1})

	byCourse, err := repos.StudentRepository.FindByCourse(ctx, "c1")
	c.Assert(err, qt.IsNil)
	c.Assert(byCourse, qt.HasLen, 1)
	c.Assert(byCourse[0].ID, qt.Equals, "s1")

	none, err := repos.StudentRepository.FindByCourse(ctx, "other")
	c.Assert(err, qt.IsNil)
	c.Assert(none, qt.HasLen, 0)

	_, err = repos.StudentRepository.FindByID(ctx, "missing")
	c.Assert(err, qt.ErrorIs, apperrors.ErrStudentNotFound)
	c.Assert(errors.Is(err, apperrors.ErrEntityNotFound), qt.IsTrue)
}

func TestSaveRejectsUnknownCourse(t *testing.T) {
	c := qt.New(t)
	repos := newRepos(c)

	_, err := repos.InstructorRepository.Save(context.Background(), &models.Instructor{
		Name:    "Bob",
		Courses: models.CourseSet{{ID: "ghost"}},
	})
	c.Assert(err, qt.ErrorIs, apperrors.ErrCourseNotFound)

	all, err := repos.InstructorRepository.FindAll(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.HasLen, 0)
}

func TestUpdateAbortsOnError(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repos := newRepos(c)
	_, err := repos.StudentRepository.Save(ctx, &models.Student{ID: "s1", Name: "Alice"})
	c.Assert(err, qt.IsNil)

	boom := errors.New("boom")
	_, err = repos.StudentRepository.Update(ctx, "s1", func(s *models.Student) error {
		s.Name = "Mallory"
		return boom
	})
	c.Assert(err, qt.ErrorIs, boom)

	got, err := repos.StudentRepository.FindByID(ctx, "s1")
	c.Assert(err, qt.IsNil)
	c.Assert(got.Name, qt.Equals, "Alice")

	_, err = repos.StudentRepository.Update(ctx, "missing", func(*models.Student) error { return nil })
	c.Assert(err, qt.ErrorIs, apperrors.ErrStudentNotFound)
}

func TestCourseDeleteCascades(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repos := newRepos(c)
	c1 := saveCourse(c, repos, "c1", "Math")
	c2 := saveCourse(c, repos, "c2", "Physics")

	_, err := repos.StudentRepository.Save(ctx, &models.Student{ID: "s1", Name: "Alice", Courses: models.CourseSet{c1, c2}})
	c.Assert(err, qt.IsNil)
	_, err = repos.InstructorRepository.Save(ctx, &models.Instructor{ID: "i1", Name: "Bob", Courses: models.CourseSet{c1}})
	c.Assert(err, qt.IsNil)

	c.Assert(repos.CourseRepository.Delete(ctx, "c1"), qt.IsNil)

	s, err := repos.StudentRepository.FindByID(ctx, "s1")
	c.Assert(err, qt.IsNil)
	c.Assert(s.Courses.IDs(), qt.DeepEquals, []string{"c2"})

	in, err := repos.InstructorRepository.FindByID(ctx, "i1")
	c.Assert(err, qt.IsNil)
	c.Assert(in.Courses, qt.HasLen, 0)

	byCourse, err := repos.StudentRepository.FindByCourse(ctx, "c1")
	c.Assert(err, qt.IsNil)
	c.Assert(byCourse, qt.HasLen, 0)
}

func TestConcurrentSubscribesAreNotLost(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repos := newRepos(c)

	ids := []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8"}
	courses := make([]models.Course, len(ids))
	for i, id := range ids {
		courses[i] = saveCourse(c, repos, id, "Course "+id)
	}
	_, err := repos.StudentRepository.Save(ctx, &models.Student{ID: "s1", Name: "Alice"})
	c.Assert(err, qt.IsNil)

	var wg sync.WaitGroup
	for _, course := range courses {
		wg.Add(1)
		go func(course models.Course) {
			defer wg.Done()
			_, err := repos.StudentRepository.Update(ctx, "s1", func(s *models.Student) error {
				s.Courses = s.Courses.Add(course)
				return nil
			})
			c.Check(err, qt.IsNil)
		}(course)
	}
	wg.Wait()

	s, err := repos.StudentRepository.FindByID(ctx, "s1")
	c.Assert(err, qt.IsNil)
	c.Assert(s.Courses, qt.HasLen, len(ids))
}
