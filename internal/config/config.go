// Package config собирает настройки: значения по умолчанию, затем TOML-файл,
// затем .env, затем переменные окружения.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const DefaultFile = "reminder.toml"

type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	HTTP     HTTPConfig     `toml:"http"`
	Log      LogConfig      `toml:"log"`
	Audit    AuditConfig    `toml:"audit"`
	Telegram TelegramConfig `toml:"telegram"`
}

type StorageConfig struct {
	Driver          string `toml:"driver"`
	Path            string `toml:"path"`
	DSN             string `toml:"dsn"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

type HTTPConfig struct {
	Addr            string   `toml:"addr"`
	ContextRoot     string   `toml:"context_root"`
	Version         string   `toml:"version"`
	CORSAllowOrigin []string `toml:"cors_allow_origin"`
}

// Prefix: общий префикс REST-маршрутов, например /api/v1.
func (h HTTPConfig) Prefix() string {
	root := "/" + strings.Trim(h.ContextRoot, "/")
	if h.Version == "" {
		return strings.TrimSuffix(root, "/")
	}
	return strings.TrimSuffix(root, "/") + "/" + strings.Trim(h.Version, "/")
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AuditConfig: пустой RedisAddr выключает аудит.
type AuditConfig struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	TTLSeconds    int    `toml:"ttl_seconds"`
	Prefix        string `toml:"prefix"`
}

type TelegramConfig struct {
	Token string `toml:"token"`
	Debug bool   `toml:"debug"`
}

func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:          "json",
			Path:            "reminder.json",
			DSN:             "data/reminder.db",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "reminder",
			MongoCollection: "tasks",
		},
		HTTP: HTTPConfig{
			Addr:        "127.0.0.1:8000",
			ContextRoot: "/api",
			Version:     "v1",
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Audit: AuditConfig{
			TTLSeconds: 7 * 24 * 3600,
			Prefix:     "reminder:audit",
		},
	}
}

// Load читает настройки. При path == "" ищем reminder.toml в текущей
// директории и молча пропускаем, если его нет; явно заданный путь обязан существовать.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Storage.Driver, "REMINDER_STORAGE")
	setString(&cfg.Storage.Path, "REMINDER_FILE")
	setString(&cfg.Storage.DSN, "REMINDER_DSN")
	setString(&cfg.Storage.MongoURI, "REMINDER_MONGO_URI")
	setString(&cfg.Storage.MongoDatabase, "REMINDER_MONGO_DB")
	setString(&cfg.Storage.MongoCollection, "REMINDER_MONGO_COLLECTION")

	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	setString(&cfg.HTTP.ContextRoot, "API_CONTEXT_ROOT")
	setString(&cfg.HTTP.Version, "API_VERSION")
	if v := os.Getenv("CORS_ALLOW_ORIGIN"); v != "" {
		cfg.HTTP.CORSAllowOrigin = splitList(v)
	}

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	setString(&cfg.Audit.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Audit.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.Audit.Prefix, "AUDIT_PREFIX")
	if err := setInt(&cfg.Audit.RedisDB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setInt(&cfg.Audit.TTLSeconds, "AUDIT_TTL_SECONDS"); err != nil {
		return err
	}

	setString(&cfg.Telegram.Token, "TELEGRAM_TOKEN")
	if v := os.Getenv("TELEGRAM_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TELEGRAM_DEBUG: %w", err)
		}
		cfg.Telegram.Debug = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Fields: плоский список для лога при старте, секреты скрыты.
func (c *Config) Fields() []any {
	return []any{
		"storage.driver", c.Storage.Driver,
		"storage.path", c.Storage.Path,
		"storage.dsn", mask(c.Storage.DSN, c.Storage.Driver == "postgres"),
		"http.addr", c.HTTP.Addr,
		"http.prefix", c.HTTP.Prefix(),
		"http.cors_allow_origin", strings.Join(c.HTTP.CORSAllowOrigin, ","),
		"log.level", c.Log.Level,
		"audit.redis_addr", c.Audit.RedisAddr,
		"audit.redis_password", mask(c.Audit.RedisPassword, true),
		"telegram.token", mask(c.Telegram.Token, true),
	}
}

func mask(v string, secret bool) string {
	if !secret || v == "" {
		return v
	}
	return "***"
}
