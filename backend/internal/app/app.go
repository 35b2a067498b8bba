package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"todo-manager/backend/internal/cache"
	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/database"
	"todo-manager/backend/internal/handlers"
	"todo-manager/backend/internal/middleware"
	"todo-manager/backend/internal/monitoring"
	"todo-manager/backend/internal/repositories"
	"todo-manager/backend/internal/services"
)

// Application holds all application dependencies and state
type Application struct {
	Config *config.Config
	Pool   *database.DatabasePool
	DB     *gorm.DB
	Redis  *cache.RedisCache
	Cache  *cache.MultiLevelCache
	Tokens *services.TokenService
	Router *gin.Engine
	Server *http.Server

	AuthService services.AuthService
	TodoService services.TodoService
	ItemService services.ItemService
}

// Initialize connects to the database and, when enabled, Redis, applies
// migrations and builds the router. A Redis outage is not fatal.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log.Info().Str("environment", cfg.Server.Environment).Msg("initializing todo manager backend")

	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg.Database, cfg.IsProduction()))
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	migrationConfig := &repositories.MigrationConfig{
		Driver:         cfg.Database.Driver,
		MigrationsPath: cfg.Database.MigrationsPath,
		DBName:         cfg.Database.Name,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
	}
	if err := repositories.RunMigrations(pool.DB, migrationConfig); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(ctx, cache.CacheConfigFrom(cfg))
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing with memory cache only")
			redisCache = nil
		} else {
			log.Info().Str("addr", cfg.GetRedisAddr()).Msg("redis connected")
		}
	}

	app := New(cfg, pool.DB, redisCache)
	app.Pool = pool
	return app, nil
}

// New wires services, health checks and routes over an already migrated
// database. redisCache may be nil.
func New(cfg *config.Config, db *gorm.DB, redisCache *cache.RedisCache) *Application {
	app := &Application{
		Config: cfg,
		DB:     db,
		Redis:  redisCache,
		Cache:  cache.NewMultiLevelCache(redisCache),
	}

	app.Tokens = services.NewTokenService(cfg.JWT, app.Cache)
	app.AuthService = services.NewAuthService()
	app.TodoService = services.NewTodoService()
	app.ItemService = services.NewItemService()

	app.registerHealthChecks()
	app.setupRoutes()
	return app
}

func (app *Application) registerHealthChecks() {
	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := app.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	if app.Redis != nil {
		monitoring.RegisterHealthCheck("redis", app.Redis.Health)
	} else {
		monitoring.UnregisterHealthCheck("redis")
	}
}

func (app *Application) setupRoutes() {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware stack (order matters!)
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.SecureHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     app.Config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.RateLimiter(
		middleware.PerMinute(app.Config.RateLimit.RequestsPerMin),
		app.Config.RateLimit.BurstSize,
	))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Task Management API is running!"})
	})
	r.GET("/health", monitoring.HealthHandler())
	r.GET("/ready", monitoring.ReadinessHandler())
	r.GET("/live", monitoring.LivenessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	authHandler := handlers.NewAuthHandler(app.DB, app.AuthService, app.Tokens)
	todoHandler := handlers.NewTodoHandler(app.DB, app.TodoService)
	itemHandler := handlers.NewItemHandler(app.DB, app.ItemService)

	requireAccess := middleware.JWTAuth(app.Tokens, app.DB, services.AccessToken)
	requireRefresh := middleware.JWTAuth(app.Tokens, app.DB, services.RefreshToken)

	// Credential endpoints share a per-IP budget across replicas when Redis is up.
	// Bulk writes are budgeted per user.
	var guard, bulkGuard gin.HandlerFunc = passThrough, passThrough
	if app.Redis != nil {
		limiter := middleware.NewDistributedRateLimiter(app.Redis.Client())
		guard = limiter.CreateMiddleware("auth", &middleware.RateLimit{
			Rate:    app.Config.RateLimit.AuthPerMin,
			Window:  time.Minute,
			KeyFunc: middleware.IPKeyFunc,
		})
		bulkGuard = limiter.CreateMiddleware("bulk", &middleware.RateLimit{
			Rate:    app.Config.RateLimit.BulkPerMin,
			Window:  time.Minute,
			KeyFunc: middleware.UserKeyFunc,
		})
	}

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", guard, authHandler.Register)
		authRoutes.POST("/login", guard, authHandler.Login)
		authRoutes.POST("/refresh", requireRefresh, authHandler.Refresh)
		authRoutes.POST("/logout", requireAccess, authHandler.Logout)
		authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
		authRoutes.POST("/reset-password", authHandler.ResetPassword)
	}

	todoRoutes := r.Group("/todos")
	todoRoutes.Use(requireAccess)
	{
		todoRoutes.POST("", todoHandler.CreateTodo)
		todoRoutes.GET("", todoHandler.GetTodos)
		todoRoutes.PUT("", bulkGuard, todoHandler.BulkTodos)
		todoRoutes.GET("/:todo_id", todoHandler.GetTodo)
		todoRoutes.PUT("/:todo_id", todoHandler.UpdateTodo)
		todoRoutes.DELETE("/:todo_id", todoHandler.DeleteTodo)

		todoRoutes.PUT("/items/bulk", bulkGuard, itemHandler.BulkItems)
		todoRoutes.GET("/:todo_id/items", itemHandler.GetItems)
		todoRoutes.POST("/:todo_id/items", itemHandler.CreateItem)
		todoRoutes.GET("/:todo_id/items/:item_id", itemHandler.GetItem)
		todoRoutes.PUT("/:todo_id/items/:item_id", itemHandler.UpdateItem)
		todoRoutes.DELETE("/:todo_id/items/:item_id", itemHandler.DeleteItem)
	}

	app.Router = r
}

func passThrough(c *gin.Context) {
	c.Next()
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to the configured shutdown grace.
func (app *Application) Run() error {
	addr := app.Config.GetServerAddr()

	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		app.Close()
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownGrace)
	defer cancel()

	err := app.Server.Shutdown(ctx)
	if err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	app.Close()
	log.Info().Msg("server stopped")
	return err
}

// Close releases the cache, Redis and the database pool.
func (app *Application) Close() {
	if app.Cache != nil {
		// Closes the Redis client too.
		if err := app.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing cache")
		}
	}

	if app.Pool != nil {
		if err := app.Pool.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing database")
		}
	}
}
