package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/uniforum/internal/app/auth"
	appControllers "github.com/yigit/uniforum/internal/app/controllers"
	appMigrations "github.com/yigit/uniforum/internal/app/migrations"
	"github.com/yigit/uniforum/internal/app/notification"
	appRepos "github.com/yigit/uniforum/internal/app/repositories"
	"github.com/yigit/uniforum/internal/app/repositories/memory"
	appRoutes "github.com/yigit/uniforum/internal/app/routes"
	"github.com/yigit/uniforum/internal/app/search"
	appServices "github.com/yigit/uniforum/internal/app/services"
	"github.com/yigit/uniforum/internal/config"
	"github.com/yigit/uniforum/internal/db"
	appMiddleware "github.com/yigit/uniforum/internal/middleware"
	pkgAuth "github.com/yigit/uniforum/internal/pkg/auth"
	"github.com/yigit/uniforum/internal/pkg/email"
	"github.com/yigit/uniforum/internal/pkg/logger"
	"github.com/yigit/uniforum/internal/seed"
)

// Storage is the selected Store plus whatever must be closed on shutdown
type Storage struct {
	Store appRepos.Store
	// Close releases the connection pool; nil for the memory store
	Close func()
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Policy         *appAuth.AccessPolicy
	Store          appRepos.Store
	JWTService     *pkgAuth.JWTService
	Dispatcher     notification.Dispatcher
	SearchAdapter  search.Adapter
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		configPath = path
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.FromSettings(cfg.Logging.Level, cfg.Logging.Format))

	lgr := logger.Get()
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage opens the configured store. For postgres it connects,
// applies migrations and returns a Close that releases the pool. Default
// forums are seeded for either driver when storage.seed is set.
func SetupStorage(ctx context.Context, cfg *config.Config, policy *appAuth.AccessPolicy, lgr zerolog.Logger) (*Storage, error) {
	var storage *Storage

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		lgr.Warn().Msg("Using in-memory storage, data is lost on restart")
		storage = &Storage{Store: memory.New(policy)}

	case config.StorageDriverPostgres:
		lgr.Info().Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}
		lgr.Info().Msg("Database connection successfully established.")

		migrationsDir := cfg.Database.MigrationsDir
		if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
			database.Close()
			lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
			return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
		}

		lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
		migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrations"))
		if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
			database.Close()
			lgr.Error().Err(err).Msg("Database migration error")
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Database migrations successfully applied.")

		storage = &Storage{
			Store: appRepos.NewPostgresStore(database, policy),
			Close: database.Close,
		}

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Storage.Seed {
		if err := seed.CreateDefaultData(ctx, storage.Store, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return storage, nil
}

// ServiceOptions maps the forum and mail settings onto service options
func ServiceOptions(cfg *config.Config) appServices.Options {
	return appServices.Options{
		PageSize:       cfg.Forum.PageSize,
		MaxPageSize:    cfg.Forum.MaxPageSize,
		ActiveWindow:   cfg.ActiveWindow(),
		ActiveLimit:    cfg.Forum.ActiveLimit,
		RecentLimit:    cfg.Forum.RecentLimit,
		MaxTitleLength: cfg.Forum.MaxTitleLength,
		NotifyTimeout:  cfg.MailTimeout(),
		AsyncNotify:    cfg.Mail.Async,
	}
}

// BuildDependencies initializes services, controllers and middleware over store.
func BuildDependencies(cfg *config.Config, policy *appAuth.AccessPolicy, store appRepos.Store, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{
		Policy: policy,
		Store:  store,
		Logger: lgr,
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenIssuer: cfg.JWT.Issuer,
	})

	sender := email.NewSMTPSender(email.SMTPConfig{
		Host:      cfg.Mail.Host,
		Port:      cfg.Mail.Port,
		Username:  cfg.Mail.Username,
		Password:  cfg.Mail.Password,
		FromName:  cfg.Mail.FromName,
		FromEmail: cfg.Mail.FromEmail,
		UseTLS:    cfg.Mail.UseTLS,
	}, logger.Component("email"))
	deps.Dispatcher = notification.NewMailDispatcher(sender, notification.MailConfig{
		SubjectPrefix: cfg.Mail.SubjectPrefix,
		BaseURL:       cfg.Mail.BaseURL,
	}, logger.Component("notification"))

	if cfg.Search.Enabled {
		deps.SearchAdapter = search.NewStoreAdapter(store, logger.Component("search"))
	} else {
		lgr.Info().Msg("Search is disabled")
		deps.SearchAdapter = search.Disabled{}
	}

	deps.Services = appServices.NewServices(store, policy, deps.Dispatcher, deps.SearchAdapter, ServiceOptions(cfg), logger.Component("services"))
	svc := deps.Services

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, logger.Component("auth"))

	deps.Controllers = appRoutes.Controllers{
		Forum:        appControllers.NewForumController(svc.Forums, svc.Threads, svc.Search),
		Thread:       appControllers.NewThreadController(svc.Threads, svc.Posts),
		Subscription: appControllers.NewSubscriptionController(svc.Subscriptions),
		Activity:     appControllers.NewActivityController(svc.Threads, svc.Posts),
		Staff:        appControllers.NewStaffController(svc.Forums, svc.Threads),
		Health:       appControllers.NewHealthController(store),
	}

	return deps
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
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.Recovery(lgr),
	)

	if cfg.Server.Swagger {
		appRoutes.SetupSwagger(router, cfg.Server.PublicHost)
	}
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router
}
