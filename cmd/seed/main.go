package main

import (
	"context"

	"github.com/rs/zerolog"

	"smp/internal/auth"
	"smp/internal/config"
	"smp/internal/db"
	apperrors "smp/internal/errors"
	"smp/internal/log"
	"smp/internal/service"
)

// seed creates the first administrator so a fresh deployment can log in and add teachers.
// Running it again is harmless.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := log.New(cfg.Environment, cfg.IsProduction())

	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		logger.Fatal().Msg("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set")
	}

	ctx := context.Background()
	stores, err := db.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store init")
	}
	defer func() {
		if err := stores.Close(ctx); err != nil {
			logger.Error().Err(err).Msg("store close")
		}
	}()

	tokens, err := auth.NewJWTService(cfg.JWTSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("token service init")
	}

	admins := service.NewAdminService(stores.Admins, service.Deps{
		Hasher: auth.NewBcryptHasher(cfg.BcryptCost),
		Tokens: tokens,
		Logger: logger,
	}, cfg.AdminTokenTTL)

	seedAdmin(ctx, logger, admins, service.CreateAdminInput{
		Name:     cfg.SeedAdminName,
		Email:    cfg.SeedAdminEmail,
		Phone:    cfg.SeedAdminPhone,
		Password: cfg.SeedAdminPassword,
	})
}

func seedAdmin(ctx context.Context, logger zerolog.Logger, admins *service.AdminService, in service.CreateAdminInput) {
	admin, err := admins.Create(ctx, in)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindConflict {
			logger.Info().Str("email", in.Email).Msg("admin already exists, nothing to seed")
			return
		}
		logger.Fatal().Err(err).Msg("seed admin")
	}
	logger.Info().Str("id", admin.ID).Str("email", admin.Email).Msg("admin seeded")
}
