package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"smp/internal/config"
	"smp/internal/model"
	"smp/internal/repository"
)

// Stores are the credential stores of both roles on the configured backend.
type Stores struct {
	Admins   repository.AdminStore
	Teachers repository.TeacherStore
	// Close releases the backend connection.
	Close func(ctx context.Context) error
}

// Open connects to the backend named by cfg.StoreDriver and prepares its schema.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		return openMySQL(cfg, log)
	case config.DriverMongo:
		return openMongo(ctx, cfg, log)
	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return &Stores{
			Admins:   repository.NewMemoryStore[model.Admin](),
			Teachers: repository.NewMemoryStore[model.Teacher](),
			Close:    func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func openMySQL(cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	gormDB, err := NewMySQL(cfg.MySQLDSN)
	if err != nil {
		return nil, err
	}

	tables := []interface{}{&model.Admin{}, &model.Teacher{}}
	if cfg.ResetDB {
		log.Warn().Msg("RESET_DB=true detected, dropping account tables")
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Warn().Err(err).Msg("failed to drop table (may not exist)")
			}
		}
	}
	if err := gormDB.AutoMigrate(tables...); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql handle: %w", err)
	}
	return &Stores{
		Admins:   repository.NewGormStore[model.Admin](gormDB),
		Teachers: repository.NewGormStore[model.Teacher](gormDB),
		Close:    func(context.Context) error { return sqlDB.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	client, database, err := NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}

	adminColl := database.Collection(repository.AdminCollection)
	teacherColl := database.Collection(repository.TeacherCollection)
	if cfg.ResetDB {
		log.Warn().Msg("RESET_DB=true detected, dropping account collections")
		for _, coll := range []*mongo.Collection{adminColl, teacherColl} {
			if err := coll.Drop(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to drop collection")
			}
		}
	}

	admins := repository.NewMongoStore[model.Admin](adminColl)
	teachers := repository.NewMongoStore[model.Teacher](teacherColl)
	if err := admins.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := teachers.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &Stores{
		Admins:   admins,
		Teachers: teachers,
		Close:    client.Disconnect,
	}, nil
}
