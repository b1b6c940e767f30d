package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zhirschtritt/orderly/internal/cache"
	"github.com/zhirschtritt/orderly/internal/config"
	"github.com/zhirschtritt/orderly/internal/domain"
	"github.com/zhirschtritt/orderly/internal/migrations"
	"github.com/zhirschtritt/orderly/internal/repository"
)

type Server struct {
	logger      *slog.Logger
	startTime   time.Time
	db          *pgxpool.Pool
	cache       *cache.UserCache
	config      *config.Config
	userService *domain.UserService
	*http.Server
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Uptime    time.Duration     `json:"uptime"`
	StartTime time.Time         `json:"start_time"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	logger.Info("configuration loaded", "port", cfg.Port, "cache_enabled", cfg.CacheEnabled(),
		"run_migrations", cfg.RunMigrations)

	server := &Server{
		logger:    logger,
		startTime: time.Now(),
		config:    cfg,
	}

	if err := server.initDatabase(ctx); err != nil {
		server.close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := server.initCache(ctx); err != nil {
		server.close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	server.initUserService()

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	server.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	server.setupRoutes(router)

	return server, nil
}

func (s *Server) setupRoutes(router chi.Router) {
	router.Get("/healthz", s.healthHandler)

	userRouter := NewUserRouter(s.userService, s.logger)
	router.Mount("/api/user", userRouter.Routes())
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Uptime:    time.Since(s.startTime),
		StartTime: s.startTime,
		Checks:    map[string]string{},
	}
	status := http.StatusOK

	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("database health check failed", "error", err)
		response.Checks["database"] = "unhealthy"
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		response.Checks["database"] = "healthy"
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			// cache failures do not mark the service unhealthy
			s.logger.Warn("cache health check failed", "error", err)
			response.Checks["cache"] = "unhealthy"
		} else {
			response.Checks["cache"] = "healthy"
		}
	}

	writeJSON(w, s.logger, status, response)
}

// Start serves until ctx is done or the listener fails, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting server", "port", s.config.Port, "start_time", s.startTime)

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("could not listen on", "addr", s.Addr, "error", err)
			errCh <- err
		}
	}()

	s.logger.Info("server is ready to handle requests", "addr", s.Addr)

	return s.gracefulShutdown(ctx, errCh)
}

func (s *Server) initDatabase(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	connString := s.config.DBConnString

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	s.logger.Info("connecting to database", "host", poolConfig.ConnConfig.Host, "database", poolConfig.ConnConfig.Database)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	s.db = pool

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.logger.Info("database connection established successfully")

	if !s.config.RunMigrations {
		return nil
	}

	migrator, err := migrations.NewMigrator(connString, s.config.MigrationsPath, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			s.logger.Error("could not close migrator", "error", err)
		}
	}()

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *Server) initCache(ctx context.Context) error {
	if !s.config.CacheEnabled() {
		s.logger.Info("user cache disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	userCache, err := cache.New(ctx, s.config.RedisURL, s.config.CacheTTL)
	if err != nil {
		return err
	}

	s.cache = userCache
	s.logger.Info("user cache enabled", "ttl", s.config.CacheTTL)
	return nil
}

func (s *Server) initUserService() {
	userRepo := repository.NewDBUserRepository(s.db)
	txManager := repository.NewTxManager(s.db, s.logger)

	// a nil *cache.UserCache must not become a non-nil interface
	var userCache domain.UserCache
	if s.cache != nil {
		userCache = s.cache
	}

	s.userService = domain.NewUserService(userRepo, txManager, userCache, s.logger)
}

func (s *Server) gracefulShutdown(ctx context.Context, errCh <-chan error) error {
	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("server is shutting down", "reason", context.Cause(ctx).Error())
	case serveErr = <-errCh:
		s.logger.Info("server is shutting down", "reason", "listener failed")
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()

	s.SetKeepAlivesEnabled(false)
	if err := s.Shutdown(ctx); err != nil {
		s.logger.Error("could not gracefully shutdown the server", "error", err)
	}

	s.close()
	s.logger.Info("server stopped")

	return serveErr
}

func (s *Server) close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("could not close cache", "error", err)
		}
		s.logger.Info("cache connection closed")
	}

	if s.db != nil {
		s.db.Close()
		s.logger.Info("database connection closed")
	}
}

func startServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	server, err := NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start server", "error", err)
		return err
	}
	return server.Start(ctx)
}
