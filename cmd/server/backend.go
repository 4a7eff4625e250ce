package main

import (
	"alcyxob/coaching-platform/internal/config"
	"alcyxob/coaching-platform/internal/repository"
	mongorepo "alcyxob/coaching-platform/internal/repository/mongo"
	"alcyxob/coaching-platform/internal/repository/sqldb"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// backend is the set of repositories for the configured database driver.
type backend struct {
	users    repository.UserRepository
	plans    repository.PlanRepository
	defaults repository.DefaultsRepository

	migrate func(ctx context.Context) error
	close   func() error
}

func openBackend(cfg config.DatabaseConfig, logger *zap.Logger) (*backend, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, err := mongorepo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Name)
		logger.Info("connected to mongodb", zap.String("database", cfg.Name))
		return &backend{
			users:    mongorepo.NewMongoUserRepository(db),
			plans:    mongorepo.NewMongoPlanRepository(db),
			defaults: mongorepo.NewMongoDefaultsRepository(db),
			migrate: func(ctx context.Context) error {
				return mongorepo.EnsureIndexes(ctx, db, logger)
			},
			close: func() error { return mongorepo.DisconnectDB(client) },
		}, nil

	case config.DriverPostgres, config.DriverSQLite:
		opts := sqldb.Options{Driver: sqldb.DriverPostgres, DSN: cfg.PostgresDSN(), LogLevel: cfg.LogLevel}
		if cfg.Driver == config.DriverSQLite {
			opts = sqldb.Options{Driver: sqldb.DriverSQLite, DSN: cfg.SQLitePath, LogLevel: cfg.LogLevel}
		}
		client, err := sqldb.Open(opts, logger.Named("gorm"))
		if err != nil {
			return nil, err
		}
		logger.Info("connected to sql database", zap.String("driver", cfg.Driver))
		return &backend{
			users:    client.Users(),
			plans:    client.Plans(),
			defaults: client.Defaults(),
			migrate:  func(context.Context) error { return client.Migrate() },
			close:    client.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}
