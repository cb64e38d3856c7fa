// Package app собирает зависимости для бинарей из cmd/.
package app

import (
	"context"
	"errors"

	"reminder/internal/audit"
	"reminder/internal/config"
	"reminder/internal/logger"
	"reminder/internal/manager"
	"reminder/internal/storage"
)

type App struct {
	Config  *config.Config
	Store   storage.Store
	Manager *manager.TaskManager
	Audit   *audit.RedisLogger
}

// SetupLogger применяет настройки [log].
func SetupLogger(cfg config.LogConfig) {
	logger.SetLevel(logger.ParseLevel(cfg.Level))
	logger.SetFormat(cfg.Format)
}

// New открывает хранилище и, если задан REDIS_ADDR, журнал аудита.
// Недоступный Redis не мешает работе: пишем предупреждение и идем дальше без аудита.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	SetupLogger(cfg.Log)
	logger.Debug(ctx, "configuration loaded", cfg.Fields()...)

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Store: store}
	var opts []manager.Option
	if cfg.Audit.RedisAddr != "" {
		rl, err := audit.NewRedisLogger(ctx, cfg.Audit)
		if err != nil {
			logger.Warn(ctx, "audit disabled", "err", err)
		} else {
			a.Audit = rl
			opts = append(opts, manager.WithAudit(rl))
		}
	}
	a.Manager = manager.NewTaskManager(store, opts...)
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Audit != nil {
		errs = append(errs, a.Audit.Close())
	}
	errs = append(errs, a.Store.Close())
	return errors.Join(errs...)
}
