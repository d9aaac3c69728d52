// Package cache holds Redis decorators for repositories.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/app/repositories"
	"github.com/yigit/cms/internal/config"
	"github.com/yigit/cms/internal/pkg/logger"
)

const courseKeyPrefix = "course:"

func courseKey(id string) string {
	return courseKeyPrefix + id
}

// NewRedisClient connects to the configured Redis instance and pings it.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, nil
}

// CourseRepository is a read-through cache in front of another
// CourseRepository. Single-course reads are cached; writes go to the
// underlying repository first and then evict the key. Redis failures are
// logged and the call falls through to the underlying repository.
type CourseRepository struct {
	next   repositories.CourseRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCourseRepository wraps next with a Redis cache.
func NewCourseRepository(next repositories.CourseRepository, client *redis.Client, ttl time.Duration) *CourseRepository {
	return &CourseRepository{next: next, client: client, ttl: ttl}
}

// FindAll is not cached.
func (r *CourseRepository) FindAll(ctx context.Context) ([]*models.Course, error) {
	return r.next.FindAll(ctx)
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	data, err := r.client.Get(ctx, courseKey(id)).Bytes()
	switch {
	case err == nil:
		course, decodeErr := decodeCourse(data)
		if decodeErr == nil {
			return course, nil
		}
		logger.Warn().Err(decodeErr).Str("courseId", id).Msg("Discarding undecodable cached course")
	case errors.Is(err, redis.Nil):
	default:
		logger.Warn().Err(err).Str("courseId", id).Msg("Course cache read failed")
	}

	course, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, course)
	return course, nil
}

func (r *CourseRepository) Save(ctx context.Context, course *models.Course) (*models.Course, error) {
	saved, err := r.next.Save(ctx, course)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, saved.ID)
	return saved, nil
}

func (r *CourseRepository) Update(ctx context.Context, id string, fn func(*models.Course) error) (*models.Course, error) {
	updated, err := r.next.Update(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, id)
	return updated, nil
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

func (r *CourseRepository) store(ctx context.Context, course *models.Course) {
	data, err := json.Marshal(course)
	if err != nil {
		logger.Warn().Err(err).Str("courseId", course.ID).Msg("Failed to encode course for cache")
		return
	}
	if err := r.client.Set(ctx, courseKey(course.ID), data, r.ttl).Err(); err != nil {
		logger.Warn().Err(err).Str("courseId", course.ID).Msg("Course cache write failed")
	}
}

func (r *CourseRepository) evict(ctx context.Context, id string) {
	if err := r.client.Del(ctx, courseKey(id)).Err(); err != nil {
		logger.Warn().Err(err).Str("courseId", id).Msg("Course cache eviction failed")
	}
}

var _ repositories.CourseRepository = (*CourseRepository)(nil)

func decodeCourse(data []byte) (*models.Course, error) {
	var course models.Course
	if err := json.Unmarshal(data, &course); err != nil {
		return nil, fmt.Errorf("error decoding cached course: %w", err)
	}
	return &course, nil
}
