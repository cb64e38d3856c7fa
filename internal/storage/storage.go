package storage

import (
	"context"
	"fmt"
	"time"

	"reminder/internal/config"
	"reminder/internal/models"
)

// Store хранит всю коллекцию задач целиком: читаем все, пишем все.
// Отсутствующий или испорченный документ читается как пустой список.
type Store interface {
	Load(ctx context.Context) ([]models.Task, error)
	Save(ctx context.Context, tasks []models.Task) error
	Close() error
}

const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Open создает хранилище по настройкам.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case "", DriverJSON:
		return NewJSONStore(cfg.Path), nil
	case DriverSQLite:
		store, err = NewSQLiteStore(ctx, cfg.DSN)
	case DriverPostgres:
		store, err = NewPostgresStore(ctx, cfg.DSN)
	case DriverMongo:
		store, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

func observe(backend, op string, start time.Time) {
	storeOpDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}
