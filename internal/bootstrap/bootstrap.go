package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/cms/internal/app/controllers"
	appMigrations "github.com/yigit/cms/internal/app/migrations"
	appRepos "github.com/yigit/cms/internal/app/repositories"
	"github.com/yigit/cms/internal/app/repositories/cache"
	"github.com/yigit/cms/internal/app/repositories/memory"
	appRoutes "github.com/yigit/cms/internal/app/routes"
	appServices "github.com/yigit/cms/internal/app/services"
	"github.com/yigit/cms/internal/config"
	"github.com/yigit/cms/internal/db"
	appMiddleware "github.com/yigit/cms/internal/middleware"
	pkgAuth "github.com/yigit/cms/internal/pkg/auth"
	"github.com/yigit/cms/internal/pkg/events"
	"github.com/yigit/cms/internal/pkg/helpers"
	"github.com/yigit/cms/internal/pkg/logger"
	"github.com/yigit/cms/internal/seed"
)

// DefaultConfigPath is used unless CONFIG_PATH is set.
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	StudentService       appServices.StudentService
	InstructorService    appServices.InstructorService
	CourseService        appServices.CourseService
	StudentController    *appControllers.StudentController
	InstructorController *appControllers.InstructorController
	CourseController     *appControllers.CourseController
	EventsHandler        *events.Handler
	Hub                  *events.Hub
	AuthMiddleware       *appMiddleware.AuthMiddleware // nil when auth is disabled
	JWTService           *pkgAuth.JWTService
	Repos                *appRepos.Repositories
	Logger               zerolog.Logger
}

// Resources are the connections opened during startup. Either field may be nil.
type Resources struct {
	DB    *db.PostgresDB
	Redis *redis.Client
}

// Close releases every open connection.
func (r *Resources) Close(lgr zerolog.Logger) {
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			lgr.Error().Err(err).Msg("Error closing redis client")
		}
	}
	if r.DB != nil {
		lgr.Info().Msg("Closing database connection pool...")
		r.DB.Close()
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := DefaultConfigPath
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage opens the configured storage backend and returns its
// repositories. For postgres the migrations are applied first.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*appRepos.Repositories, *Resources, error) {
	res := &Resources{}

	switch strings.ToLower(cfg.Storage.Driver) {
	case config.StorageDriverMemory:
		lgr.Info().Msg("Using in-memory storage")
		repos, err := memory.NewRepositories()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create memory store: %w", err)
		}
		return repos, res, nil

	default:
		lgr.Info().Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, nil, err
		}
		res.DB = database
		lgr.Info().Msg("Database connection successfully established.")

		migrationsDir := cfg.Database.MigrationsDir
		if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
			database.Close()
			return nil, nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
		}

		lgr.Info().Str("dir", migrationsDir).Msg("Running database migrations...")
		migrator := appMigrations.NewMigrator(database.Pool, lgr)
		if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
			lgr.Error().Err(err).Msg("Database migration error")
			database.Close()
			return nil, nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Database migrations successfully applied.")

		return appRepos.NewRepositories(database), res, nil
	}
}

// SetupCache puts the Redis course cache in front of the course repository
// when it is enabled.
func SetupCache(ctx context.Context, cfg *config.Config, repos *appRepos.Repositories, res *Resources, lgr zerolog.Logger) error {
	if !cfg.Redis.Enabled {
		return nil
	}

	client, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to redis")
		return err
	}
	res.Redis = client

	ttl := helpers.ParseDuration(cfg.Redis.CacheTTL, 5*time.Minute)
	repos.CourseRepository = cache.NewCourseRepository(repos.CourseRepository, client, ttl)
	lgr.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", ttl).Msg("Course cache enabled")
	return nil
}

// BuildDependencies initializes application services and controllers.
func BuildDependencies(cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr, Repos: repos}

	if cfg.Seed.Enabled {
		// Seed failures are logged and startup continues
		if err := seed.CreateDefaultData(context.Background(), repos.CourseRepository, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	eventsLogger := logger.WithComponent("events")
	deps.Hub = events.NewHub(eventsLogger)
	deps.EventsHandler = events.NewHandler(deps.Hub, eventsLogger)

	if cfg.Auth.Enabled {
		deps.JWTService = NewJWTService(cfg)
		deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	} else {
		lgr.Warn().Msg("Auth is disabled, mutating routes are open")
	}

	deps.StudentService = appServices.NewStudentService(repos.StudentRepository, repos.CourseRepository, deps.Hub, lgr)
	deps.InstructorService = appServices.NewInstructorService(repos.InstructorRepository, repos.CourseRepository, deps.Hub, lgr)
	deps.CourseService = appServices.NewCourseService(repos, lgr)

	deps.StudentController = appControllers.NewStudentController(deps.StudentService)
	deps.InstructorController = appControllers.NewInstructorController(deps.InstructorService)
	deps.CourseController = appControllers.NewCourseController(deps.CourseService)

	return deps, nil
}

// NewJWTService builds the token service from the auth section.
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.Auth.Secret,
		TokenExp:    helpers.ParseDuration(cfg.Auth.TokenExpiration, 24*time.Hour),
		TokenIssuer: cfg.Auth.Issuer,
	})
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(lgr))

	appRoutes.SetupRouter(router,
		deps.StudentController,
		deps.InstructorController,
		deps.CourseController,
		deps.EventsHandler,
		deps.AuthMiddleware,
	)

	return router
}
