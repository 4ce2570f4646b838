package main

//go:generate swag init --dir ../../ --generalInfo cmd/server/main.go --output ../../docs --outputTypes go

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"smp/docs"
	"smp/internal/auth"
	"smp/internal/config"
	"smp/internal/db"
	"smp/internal/handler"
	"smp/internal/log"
	"smp/internal/metrics"
	"smp/internal/router"
	"smp/internal/service"
	"smp/internal/validation"
)

// @title School Management Portal API
// @version 1.0
// @description Administrator and teacher accounts with JWT authentication.
// @host localhost:3000
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.IsProduction())
	if cfg.NoLogs {
		logger = logger.Level(zerolog.WarnLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := db.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store init")
	}

	tokens, err := auth.NewJWTService(cfg.JWTSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("token service init")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := service.Deps{
		Hasher:    auth.NewBcryptHasher(cfg.BcryptCost),
		Tokens:    tokens,
		Validator: validation.New(),
		Logger:    logger,
		Metrics:   m,
	}
	adminService := service.NewAdminService(stores.Admins, deps, cfg.AdminTokenTTL)
	teacherService := service.NewTeacherService(stores.Teachers, deps, cfg.TeacherTokenTTL, cfg.TeacherDefaultPassword)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, router.Deps{
		Admins:         stores.Admins,
		Teachers:       stores.Teachers,
		Tokens:         tokens,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         logger,
		RequestLogging: !cfg.NoLogs,
		AdminHandler:   handler.NewAdminHandler(adminService),
		TeacherHandler: handler.NewTeacherHandler(teacherService),
		HealthHandler:  handler.NewHealthHandler(cfg.StoreDriver),
	})

	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = "localhost:" + cfg.ServerPort
	}
	logger.Info().Str("url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html").Msg("swagger documentation available")

	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server start")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := stores.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("store close")
	}
}
