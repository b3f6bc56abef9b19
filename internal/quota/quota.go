// Package quota — суточный лимит запусков пайплайна в Redis.
//
// Каждое срабатывание расписания увеличивает счётчик
// seoagent:quota:<YYYY-MM-DD>; запуск разрешён, пока счётчик не превышает
// articles_per_day. Ключ живёт 48 часов. Недоступность Redis не блокирует
// запуск: ошибка логируется, запуск разрешается.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "seoagent:quota:"
	defaultTTL = 48 * time.Hour
)

// Config — конфигурация Quota.
type Config struct {
	// Location — часовой пояс, в котором считаются сутки (default: UTC).
	Location *time.Location

	// TTL — время жизни счётчика (default: 48h).
	TTL time.Duration

	// Now — источник времени (default: time.Now).
	Now func() time.Time

	Logger *slog.Logger
}

// Quota — суточный счётчик запусков.
type Quota struct {
	client redis.Cmdable
	loc    *time.Location
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// New создаёт Quota.
func New(client redis.Cmdable, cfg Config) *Quota {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Quota{client: client, loc: loc, ttl: ttl, now: now, logger: logger}
}

// NewClient создаёт Redis клиент по URL (redis://host:port/db).
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Key возвращает ключ счётчика для суток t.
func (q *Quota) Key(t time.Time) string {
	return keyPrefix + t.In(q.loc).Format("2006-01-02")
}

// Acquire занимает один запуск из суточного лимита.
// Возвращает allowed=false, если лимит уже исчерпан.
func (q *Quota) Acquire(ctx context.Context, limit int) (allowed bool, used int64) {
	key := q.Key(q.now())

	var incr *redis.IntCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, q.ttl)
		return nil
	})
	if err != nil {
		q.logger.Warn("quota check failed, allowing run", "key", key, "error", err)
		return true, 0
	}

	used = incr.Val()
	return used <= int64(limit), used
}

// Used возвращает число запусков за текущие сутки.
func (q *Quota) Used(ctx context.Context) (int64, error) {
	n, err := q.client.Get(ctx, q.Key(q.now())).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get quota: %w", err)
	}
	return n, nil
}
