package main

import (
	"context"
	"fmt"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/config"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/database"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/storage"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// openStore builds the configured backend and a closer that releases its connections.
func openStore(ctx context.Context, appConfig config.AppConfig, logger *zap.Logger) (leaderboard.Store, func() error, error) {
	switch appConfig.StorageDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return gormStore(db)
	case config.DriverPostgres:
		db, err := database.OpenPostgres(appConfig.DatabaseDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return gormStore(db)
	case config.DriverFile:
		store, err := storage.NewFileStore(afero.NewOsFs(), appConfig.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	case config.DriverRedis:
		client := storage.NewRedisClient(storage.RedisOptions{
			Address:  appConfig.RedisAddress,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", appConfig.RedisAddress, err)
		}
		store, err := storage.NewRedisStore(client, appConfig.RedisKey)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", appConfig.StorageDriver)
	}
}

func gormStore(db *gorm.DB) (leaderboard.Store, func() error, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.NewGormStore(db, storage.DefaultDocumentName)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}
	return store, sqlDB.Close, nil
}
