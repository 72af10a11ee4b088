package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fittracker/fittracker/internal/config"
	"github.com/fittracker/fittracker/internal/domain/measurement"
	"github.com/fittracker/fittracker/internal/domain/report"
	"github.com/fittracker/fittracker/internal/domain/student"
	"github.com/fittracker/fittracker/internal/platform/auth"
	"github.com/fittracker/fittracker/internal/platform/blobstore"
	"github.com/fittracker/fittracker/internal/platform/db"
	"github.com/fittracker/fittracker/internal/platform/middleware"
	"github.com/fittracker/fittracker/internal/platform/telemetry"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:          "fittracker-server",
		Short:        "FitTracker API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// newLogger writes JSON to stdout, or console output in development.
func newLogger(env, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

// newArchive builds the report archive for the configured backend. A nil
// store means archiving is off.
func newArchive(ctx context.Context, cfg *config.Config) (blobstore.BlobStore, error) {
	switch cfg.ArchiveBackend {
	case "", "none":
		return nil, nil
	case "memory":
		return blobstore.NewInMemoryBlobStore(), nil
	case "s3":
		return blobstore.NewS3BlobStore(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.ArchiveBackend)
	}
}

// services holds the domain services shared by the HTTP server and the
// export command.
type services struct {
	students     *student.Service
	measurements *measurement.Service
	reports      *report.Service
}

func newServices(cfg *config.Config, q db.Querier, archive blobstore.BlobStore, tel *telemetry.Telemetry) (*services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	students := student.NewService(student.NewRepoPG(q))
	measurements := measurement.NewService(measurement.NewRepoPG(q))
	reports := report.NewService(report.Deps{
		Students:  students,
		History:   measurements,
		Composer:  report.NewComposer(cfg.ReportBrand, loc),
		Archive:   archive,
		Telemetry: tel,
		Location:  loc,
	})
	return &services{students: students, measurements: measurements, reports: reports}, nil
}

type serverDeps struct {
	DB          db.Querier
	Pinger      db.Pinger
	PoolStats   func() *db.PoolStats
	Archive     blobstore.BlobStore
	Telemetry   *telemetry.Telemetry
	Revocations *auth.TokenRevocationStore
}

// newServer wires middleware and routes. Nothing touches the database until
// a request is served.
func newServer(cfg *config.Config, logger zerolog.Logger, deps serverDeps) (*echo.Echo, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	svcs, err := newServices(cfg, deps.DB, deps.Archive, deps.Telemetry)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = middleware.NewValidator()

	httpMetrics := middleware.NewHTTPMetrics(deps.Telemetry.Registry)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(httpMetrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{echo.HeaderContentDisposition, report.HeaderReportPages, report.HeaderReportArchive},
	}))
	e.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:      cfg.AuthIssuer,
		SigningKey:  []byte(cfg.AuthSigningKey),
		Revocations: deps.Revocations,
		Skipper:     auth.AuthSkipper,
	}))

	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		KeyFunc:           rateLimitKey,
	})

	// Public infra endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if deps.Pinger != nil {
		e.GET("/health/db", db.HealthHandler(deps.Pinger, deps.PoolStats))
	}
	e.GET("/metrics", deps.Telemetry.Handler())

	accounts := auth.NewAccounts(
		auth.NewUserRepoPG(deps.DB),
		auth.NewTokenIssuer([]byte(cfg.AuthSigningKey), cfg.AuthIssuer, cfg.AuthTokenTTL),
		deps.Revocations,
	)
	authGroup := e.Group("/auth", rateLimit)
	auth.NewHandler(accounts).RegisterRoutes(authGroup)

	api := e.Group("/api/v1", rateLimit)
	student.NewHandler(svcs.students, loc).RegisterRoutes(api)
	measurement.NewHandler(svcs.measurements).RegisterRoutes(api)
	report.NewHandler(svcs.reports).RegisterRoutes(api)
	if deps.Archive != nil {
		blobstore.NewBlobHandler(deps.Archive).RegisterRoutes(api)
	}

	return e, nil
}

// rateLimitKey buckets signed-in callers by user and everyone else by
// client IP.
func rateLimitKey(c echo.Context) string {
	if sess := auth.FromEcho(c); sess.Require() == nil {
		return "user:" + sess.UserID.String()
	}
	return "ip:" + c.RealIP()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := newLogger(os.Getenv("ENV"), "")
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	archive, err := newArchive(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up report archive")
	}
	if archive != nil {
		logger.Info().Str("backend", cfg.ArchiveBackend).Msg("report archive enabled")
	}

	revocations := auth.NewTokenRevocationStore(time.Minute)
	defer revocations.Close()

	e, err := newServer(cfg, logger, serverDeps{
		DB:          pool,
		Pinger:      pool,
		PoolStats:   func() *db.PoolStats { return db.GetPoolStats(pool) },
		Archive:     archive,
		Telemetry:   telemetry.New(logger),
		Revocations: revocations,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
