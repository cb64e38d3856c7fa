package logger

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Level: уровень логирования
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

type ctxKey struct{}

var (
	mu       sync.Mutex
	level    = LevelInfo
	output   io.Writer = os.Stderr
	format   = log.TextFormatter
	instance = newLogger()
)

func newLogger() *log.Logger {
	l := log.NewWithOptions(output, log.Options{
		Level:           toCharm(level),
		Formatter:       format,
		ReportTimestamp: true,
		TimeFormat:      "2006/01/02 15:04:05",
	})
	return l
}

func toCharm(l Level) log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseLevel переводит строку из конфига в Level. Неизвестное значение дает info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
	instance.SetLevel(toCharm(l))
}

// SetOutput перенаправляет вывод (используется в тестах).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	instance = newLogger()
}

// SetFormat: text | json | logfmt
func SetFormat(name string) {
	mu.Lock()
	defer mu.Unlock()
	switch name {
	case "json":
		format = log.JSONFormatter
	case "logfmt":
		format = log.LogfmtFormatter
	default:
		format = log.TextFormatter
	}
	instance = newLogger()
}

// WithContext добавляет поля к контексту. Базовый логгер берется в момент
// записи, поэтому SetLevel и SetFormat действуют и на уже созданные контексты.
func WithContext(ctx context.Context, kv ...any) context.Context {
	prev := fields(ctx)
	all := make([]any, 0, len(prev)+len(kv))
	all = append(append(all, prev...), kv...)
	return context.WithValue(ctx, ctxKey{}, all)
}

func fields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	kv, _ := ctx.Value(ctxKey{}).([]any)
	return kv
}

func from(ctx context.Context) *log.Logger {
	mu.Lock()
	l := instance
	mu.Unlock()
	if kv := fields(ctx); len(kv) > 0 {
		return l.With(kv...)
	}
	return l
}

func Debug(ctx context.Context, msg string, kv ...any) {
	from(ctx).Debug(msg, kv...)
}

func Info(ctx context.Context, msg string, kv ...any) {
	from(ctx).Info(msg, kv...)
}

func Warn(ctx context.Context, msg string, kv ...any) {
	from(ctx).Warn(msg, kv...)
}

// Error пишет сообщение уровня error; err может быть nil.
func Error(ctx context.Context, err error, msg string, kv ...any) {
	if err != nil {
		kv = append([]any{"err", err}, kv...)
	}
	from(ctx).Error(msg, kv...)
}
