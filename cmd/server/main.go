package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // access schedules need zone data on minimal images

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rotafacil/internal/adapters/api"
	"rotafacil/internal/adapters/api/middleware"
	"rotafacil/internal/adapters/db/memory"
	pgrepo "rotafacil/internal/adapters/db/postgres"
	appaccess "rotafacil/internal/application/access"
	appauth "rotafacil/internal/application/auth"
	"rotafacil/internal/config"
	domainaccess "rotafacil/internal/domain/access"
	domainaudit "rotafacil/internal/domain/audit"
	domainauth "rotafacil/internal/domain/auth"
)

//	@title			Rota Fácil Access API
//	@version		1.0
//	@description	Access schedule enforcement for the Rota Fácil platform

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and JWT token.

const (
	janitorInterval = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// lockService is what both lock backends provide
type lockService interface {
	appaccess.Locker
	appauth.JanitorLock
}

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("load time zone")
	}

	log.Info().
		Str("http_port", cfg.HTTPPort).
		Bool("dev_mode", cfg.Auth.DevMode).
		Str("timezone", cfg.Timezone).
		Msg("Starting Rota Fácil access server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize repositories (choose Postgres or in-memory)
	var userRepo domainauth.Repository
	var scheduleRepo domainaccess.Repository
	var auditRepo domainaudit.Repository
	var locker lockService

	if cfg.Database.Enabled {
		log.Info().Msg("Initializing Postgres repositories")
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres")
		}
		defer db.Close()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)

		initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := db.PingContext(initCtx); err != nil {
			log.Fatal().Err(err).Msg("ping postgres")
		}
		if err := pgrepo.RunMigrations(initCtx, db, cfg.Database.Migrations); err != nil {
			log.Fatal().Err(err).Msg("run migrations")
		}
		pool, err := pgxpool.New(initCtx, cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres lock pool")
		}
		cancel()
		defer pool.Close()

		userRepo = pgrepo.NewUserRepository(db)
		scheduleRepo = pgrepo.NewScheduleRepository(db)
		auditRepo = pgrepo.NewAuditRepository(db)
		locker = pgrepo.NewLockManager(pool)
	} else {
		log.Warn().Msg("DB disabled - using in-memory repositories")
		userRepo = memory.NewUserRepository()
		scheduleRepo = memory.NewScheduleRepository()
		auditRepo = memory.NewAuditRepository()
		locker = memory.NewLocker()
	}

	// Initialize services
	accessService := appaccess.NewService(scheduleRepo, userRepo, auditRepo, locker, loc)
	authService := appauth.NewService(&cfg.Auth, userRepo, accessService, auditRepo)
	if cfg.Auth.DevMode {
		log.Warn().Msg("DEV_MODE enabled - every request acts as an administrator")
	}

	loginLimiter := api.NewLoginRateLimiter(cfg.Auth.LoginRateLimit, cfg.Auth.LoginWindow())
	go loginLimiter.RunCleanup(ctx)
	go authService.RunSessionJanitor(ctx, janitorInterval, locker)

	// Initialize API handler
	handler := api.NewHandler(authService, accessService, loginLimiter)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: false,
	}))

	authMiddleware := middleware.AuthMiddleware(authService, &cfg.Auth)
	requireAdmin := middleware.RequireAdmin()
	requireAccessWindow := middleware.RequireAccessWindow(accessService)

	// Register routes with middleware
	handler.RegisterRoutes(r, authMiddleware, requireAdmin, requireAccessWindow)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().Msgf("Starting Rota Fácil server on port %s", cfg.HTTPPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
	log.Info().Msg("server stopped")
}
