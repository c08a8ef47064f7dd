// Package app wires configuration, storage, services and handlers into a
// runnable HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/auth"
	cachememory "github.com/prn-tf/cityguide/internal/cache/memory"
	cacheredis "github.com/prn-tf/cityguide/internal/cache/redis"
	"github.com/prn-tf/cityguide/internal/config"
	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/handler"
	"github.com/prn-tf/cityguide/internal/media"
	"github.com/prn-tf/cityguide/internal/metrics"
	"github.com/prn-tf/cityguide/internal/repository"
	"github.com/prn-tf/cityguide/internal/repository/memory"
	"github.com/prn-tf/cityguide/internal/repository/mongo"
	"github.com/prn-tf/cityguide/internal/repository/postgres"
	"github.com/prn-tf/cityguide/internal/repository/sqlite"
	"github.com/prn-tf/cityguide/internal/service"
	"github.com/prn-tf/cityguide/internal/session"
)

// App owns the server and every resource it opened.
type App struct {
	cfg     *config.Config
	backend *repository.Backend
	cache   repository.Cache
	users   *service.UserService
	server  *http.Server
	logger  zerolog.Logger
}

// New opens the configured backends and assembles the HTTP server.
// Resources opened before a failure are released.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	backend, err := OpenBackend(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	cache, err := OpenCache(ctx, cfg, logger)
	if err != nil {
		_ = backend.Database.Close()
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		backend: backend,
		cache:   cache,
		logger:  logger.With().Str("component", "app").Logger(),
	}

	h, err := a.buildHandler(ctx)
	if err != nil {
		_ = a.close()
		return nil, err
	}

	if cfg.Auth.SeedOnStart {
		if err := a.seed(ctx); err != nil {
			_ = a.close()
			return nil, err
		}
	}

	a.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

// OpenBackend connects to the configured database and prepares its schema.
func OpenBackend(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Backend, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		db, err := mongo.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return mongo.NewBackend(db), nil

	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return postgres.NewBackend(db), nil

	case config.DriverSQLite:
		db, err := sqlite.NewDB(ctx, sqlite.ConfigFromDatabase(cfg), logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return sqlite.NewBackend(db), nil

	case config.DriverMemory:
		logger.Warn().Msg("Using in-memory storage, data is lost on restart")
		return memory.NewBackend(), nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// OpenCache opens the session cache selected by session.store.
func OpenCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Cache, error) {
	if cfg.Session.Store == config.SessionStoreRedis {
		return cacheredis.NewCache(ctx, cfg.Redis, logger)
	}
	return cachememory.NewCache(cachememory.DefaultCleanupInterval), nil
}

func (a *App) buildHandler(ctx context.Context) (http.Handler, error) {
	cfg := a.cfg
	logger := a.logger

	guards := auth.NewGuards(cfg.Auth.AdminUsername)
	a.users = service.NewUserService(a.backend.Repos.User, cfg.Auth.BcryptCost, logger)

	sessions := session.NewManager(session.ManagerConfig{
		Store:      session.NewStore(a.cache, cfg.Session.TTL),
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
		Logger:     logger,
	})

	renderer, err := handler.NewRenderer(sessions, guards, logger)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var uploader *media.Uploader
	if cfg.Media.Enabled {
		store, err := media.NewS3Store(ctx, cfg.Media, logger)
		if err != nil {
			return nil, err
		}
		uploader = media.NewUploader(store, cfg.Media.MaxUploadSize, logger)
	}

	var (
		services        []*service.ListingService
		listingHandlers []*handler.ListingHandler
	)
	for _, c := range domain.AllCategories() {
		repo := a.backend.Repos.Listing(c)
		if repo == nil {
			return nil, fmt.Errorf("no repository for category %s", c)
		}
		svc := service.NewListingService(repo, guards, logger)
		services = append(services, svc)
		listingHandlers = append(listingHandlers, handler.NewListingHandler(handler.ListingHandlerConfig{
			Service:  svc,
			Renderer: renderer,
			Uploader: uploader,
			Metrics:  m,
			Logger:   logger,
		}))
	}

	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler: handler.NewAuthHandler(handler.AuthHandlerConfig{
			Users:    a.users,
			Sessions: sessions,
			Renderer: renderer,
			Health:   a.backend.Database,
			Metrics:  m,
			Logger:   logger,
		}),
		ListingHandlers: listingHandlers,
		APIHandler: handler.NewAPIHandler(handler.APIHandlerConfig{
			Services: services,
			Metrics:  m,
			Logger:   logger,
		}),
		Renderer:       renderer,
		Sessions:       sessions,
		Users:          a.users,
		Metrics:        m,
		MetricsPath:    cfg.Metrics.Path,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodySize:    cfg.Server.MaxBodySize,
		MaxUploadSize:  uploader.MaxSize(),
		Logger:         logger,
	})
	return router.Handler(), nil
}

// seed creates the configured users that do not exist yet.
func (a *App) seed(ctx context.Context) error {
	users := a.cfg.Auth.SeedUsers()
	if len(users) == 0 {
		return nil
	}

	inputs := make([]service.SignupInput, 0, len(users))
	for _, u := range users {
		inputs = append(inputs, service.SignupInput{
			Username:  u.Username,
			Password:  u.Password,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Hometown:  u.Hometown,
		})
	}

	created, err := a.users.Seed(ctx, inputs)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	a.logger.Info().Int("created", created).Int("configured", len(inputs)).Msg("Seeded users")
	return nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Users returns the user service.
func (a *App) Users() *service.UserService {
	return a.users
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.server.Addr).Msg("HTTP server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		_ = a.close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown drains in-flight requests and closes the cache and the database.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down HTTP server")
	err := a.server.Shutdown(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) close() error {
	var errs []error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if a.backend != nil {
		if err := a.backend.Database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// defaultShutdownTimeout is used when the configuration leaves it unset.
const defaultShutdownTimeout = 30 * time.Second
