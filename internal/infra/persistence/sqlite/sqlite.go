// Package sqlite contains the concrete implementation of the persistence layer
// using GORM over an embedded SQLite file. The queue must work with no network,
// so the whole store lives on local disk.
package sqlite

import (
	"context"
	"log/slog"

	"medsync/config"
	"medsync/internal/domain/lifecycle"
	"medsync/internal/errors"
	"medsync/internal/infra/persistence/model"

	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens the local queue database and migrates its schema.
func New(params Params) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(params.Config.Storage.Path), &gorm.Config{
		// Single-writer embedded store; explicit transactions only.
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open local queue database")
	}

	if err := db.AutoMigrate(
		&model.PendingChangeModel{},
		&model.NotificationMessageModel{},
	); err != nil {
		return nil, errors.Wrap(err, "failed to migrate local queue schema")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get local queue sql.DB")
	}

	// One connection keeps SQLite writes serialized.
	sqlDB.SetMaxOpenConns(1)

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrap(err, "failed to ping local queue database")
			}

			params.Logger.Info("Local queue database ready",
				slog.String("path", params.Config.Storage.Path),
			)

			return nil
		},
		OnStop: func(_ context.Context) error {
			return sqlDB.Close()
		},
	})

	return db, nil
}
