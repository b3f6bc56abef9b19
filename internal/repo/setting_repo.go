package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SettingRepo — key/value настройки, переопределяющие конфигурацию процесса.
type SettingRepo struct {
	db DB
}

// NewSettingRepo создаёт новый SettingRepo.
func NewSettingRepo(db DB) *SettingRepo {
	return &SettingRepo{db: db}
}

// Get возвращает значение по ключу. ok=false, если ключ не задан или значение NULL.
func (r *SettingRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value *string
	err := r.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

// Set сохраняет значение (upsert).
func (r *SettingRepo) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
