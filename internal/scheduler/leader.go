package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// LockKey — ключ pg_advisory_lock для лидера планировщика.
const LockKey int64 = 424242

// lockConn — одно соединение с БД (*pgxpool.Conn).
// Advisory lock привязан к сессии, поэтому захват и освобождение
// выполняются на одном соединении.
type lockConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Leader — leader election через pg_try_advisory_lock.
type Leader struct {
	conn   lockConn
	key    int64
	held   bool
	logger *slog.Logger
}

// NewLeader создаёт Leader поверх выделенного соединения.
func NewLeader(conn lockConn, key int64, logger *slog.Logger) *Leader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Leader{conn: conn, key: key, logger: logger}
}

// TryAcquire пытается захватить лидерство. Повторный вызов у лидера
// не обращается к БД.
func (l *Leader) TryAcquire(ctx context.Context) (bool, error) {
	if l.held {
		return true, nil
	}
	var ok bool
	if err := l.conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		return false, fmt.Errorf("try advisory lock: %w", err)
	}
	l.held = ok
	return ok, nil
}

// Release освобождает лидерство, если оно захвачено.
func (l *Leader) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}
	if _, err := l.conn.Exec(ctx, "select pg_advisory_unlock($1)", l.key); err != nil {
		return fmt.Errorf("advisory unlock: %w", err)
	}
	l.held = false
	return nil
}

// Wait опрашивает блокировку с интервалом every, пока не станет лидером.
// Возвращает ctx.Err() при отмене.
func (l *Leader) Wait(ctx context.Context, every time.Duration) error {
	tk := time.NewTicker(every)
	defer tk.Stop()

	for {
		ok, err := l.TryAcquire(ctx)
		if err != nil {
			l.logger.Warn("leader election failed", "error", err)
		}
		if ok {
			l.logger.Info("became scheduler leader", "lock_key", l.key)
			return nil
		}

		select {
		case <-tk.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
