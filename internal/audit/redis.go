// Package audit пишет журнал изменений задач в Redis.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"reminder/internal/config"
	"reminder/internal/manager"
)

var auditWrites = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reminder_audit_events_total",
		Help: "Audit events written to Redis by outcome",
	},
	[]string{"status"},
)

// RedisLogger хранит каждое событие отдельным ключом с TTL.
type RedisLogger struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLogger подключается и проверяет соединение.
func NewRedisLogger(ctx context.Context, cfg config.AuditConfig) (*RedisLogger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}

	return &RedisLogger{
		client: client,
		prefix: cfg.Prefix,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}, nil
}

func (l *RedisLogger) LogEvent(ctx context.Context, ev manager.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		auditWrites.WithLabelValues("error").Inc()
		return err
	}
	if err := l.client.Set(ctx, Key(l.prefix, ev), data, l.ttl).Err(); err != nil {
		auditWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("audit write: %w", err)
	}
	auditWrites.WithLabelValues("success").Inc()
	return nil
}

// Recent возвращает события по шаблону prefix:*, отсортированные по ключу.
func (l *RedisLogger) Recent(ctx context.Context, limit int) ([]manager.Event, error) {
	var keys []string
	iter := l.client.Scan(ctx, 0, l.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sortByTime(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[len(keys)-limit:]
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := l.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	events := make([]manager.Event, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue // ключ истек между SCAN и MGET
		}
		var ev manager.Event
		if err := json.Unmarshal([]byte(s), &ev); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func (l *RedisLogger) Close() error {
	return l.client.Close()
}

// Key: prefix:op:task_id:unixnano. Для clear и replace task_id = "all".
func Key(prefix string, ev manager.Event) string {
	id := ev.TaskID
	if id == "" {
		id = "all"
	}
	return fmt.Sprintf("%s:%s:%s:%d", prefix, ev.Op, id, ev.At.UnixNano())
}

func keyTime(key string) int64 {
	n, _ := strconv.ParseInt(key[strings.LastIndexByte(key, ':')+1:], 10, 64)
	return n
}

func sortByTime(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		return keyTime(keys[i]) < keyTime(keys[j])
	})
}
