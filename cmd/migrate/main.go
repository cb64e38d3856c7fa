// migrate копирует задачи из одного хранилища в хранилище из конфигурации,
// например reminder.json в SQLite или PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"reminder/internal/app"
	"reminder/internal/config"
	"reminder/internal/logger"
	"reminder/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	fromDriver := flag.String("from-driver", storage.DriverJSON, "source driver: json, sqlite, postgres or mongo")
	from := flag.String("from", storage.DefaultPath, "source path (json) or DSN (sqlite, postgres) or URI (mongo)")
	flag.Parse()

	ctx := context.Background()
	n, err := run(ctx, *configPath, *fromDriver, *from)
	if err != nil {
		logger.Error(ctx, err, "migration failed")
		os.Exit(1)
	}
	fmt.Printf("Migrated %d tasks.\n", n)
}

func run(ctx context.Context, configPath, fromDriver, from string) (int, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return 0, err
	}

	src := cfg.Storage
	src.Driver = fromDriver
	switch fromDriver {
	case storage.DriverJSON:
		src.Path = from
	case storage.DriverMongo:
		src.MongoURI = from
	default:
		src.DSN = from
	}
	if src == cfg.Storage {
		return 0, fmt.Errorf("source and target are the same %s store", fromDriver)
	}

	source, err := storage.Open(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	tasks, err := source.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("open target: %w", err)
	}
	defer a.Close()

	logger.Info(ctx, "migrating", "from", fromDriver, "to", cfg.Storage.Driver, "tasks", len(tasks))
	if err := a.Manager.ReplaceTasks(ctx, tasks); err != nil {
		return 0, err
	}
	return len(tasks), nil
}
