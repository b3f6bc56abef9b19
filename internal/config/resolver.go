package config

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shaiso/seoagent/internal/domain"
)

// Ключи runtime-настроек в хранилище settings.
const (
	KeyPublishMode    = "publish_mode"
	KeyMoscowShare    = "moscow_share"
	KeyArticlesPerDay = "articles_per_day"
)

// SettingStore — read-only доступ к key/value overrides.
type SettingStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// Defaults — статические значения, используемые при отсутствии override.
type Defaults struct {
	PublishMode    domain.PublishMode
	MoscowShare    float64
	ArticlesPerDay int
}

// RunConfig — настройки, вычисленные один раз на запуск.
type RunConfig struct {
	PublishMode    domain.PublishMode
	MoscowShare    float64
	ArticlesPerDay int
}

// Resolver объединяет дефолты процесса с overrides из хранилища.
//
// Ни один метод не возвращает ошибку: недоступное хранилище,
// отсутствующее или некорректное значение трактуются как "не задано".
type Resolver struct {
	store    SettingStore
	defaults Defaults
	logger   *slog.Logger
}

// NewResolver создаёт Resolver. store может быть nil — тогда всегда дефолты.
func NewResolver(store SettingStore, defaults Defaults, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if _, ok := domain.ParsePublishMode(string(defaults.PublishMode)); !ok {
		defaults.PublishMode = DefaultPublishMode
	}
	if !validShare(defaults.MoscowShare) {
		defaults.MoscowShare = DefaultMoscowShare
	}
	if defaults.ArticlesPerDay <= 0 {
		defaults.ArticlesPerDay = DefaultArticlesPerDay
	}
	return &Resolver{store: store, defaults: defaults, logger: logger}
}

// Resolve вычисляет RunConfig.
func (r *Resolver) Resolve(ctx context.Context) RunConfig {
	return RunConfig{
		PublishMode:    r.PublishMode(ctx),
		MoscowShare:    r.MoscowShare(ctx),
		ArticlesPerDay: r.ArticlesPerDay(ctx),
	}
}

// PublishMode возвращает auto или semi.
func (r *Resolver) PublishMode(ctx context.Context) domain.PublishMode {
	raw, ok := r.lookup(ctx, KeyPublishMode)
	if !ok {
		return r.defaults.PublishMode
	}
	mode, ok := parsePublishMode(raw)
	if !ok {
		r.invalid(KeyPublishMode, raw)
		return r.defaults.PublishMode
	}
	return mode
}

// MoscowShare возвращает долю Москвы в [0,1].
func (r *Resolver) MoscowShare(ctx context.Context) float64 {
	raw, ok := r.lookup(ctx, KeyMoscowShare)
	if !ok {
		return r.defaults.MoscowShare
	}
	v, ok := parseMoscowShare(raw)
	if !ok {
		r.invalid(KeyMoscowShare, raw)
		return r.defaults.MoscowShare
	}
	return v
}

// ArticlesPerDay возвращает положительный лимит статей в сутки.
func (r *Resolver) ArticlesPerDay(ctx context.Context) int {
	raw, ok := r.lookup(ctx, KeyArticlesPerDay)
	if !ok {
		return r.defaults.ArticlesPerDay
	}
	v, ok := parseArticlesPerDay(raw)
	if !ok {
		r.invalid(KeyArticlesPerDay, raw)
		return r.defaults.ArticlesPerDay
	}
	return v
}

func (r *Resolver) lookup(ctx context.Context, key string) (string, bool) {
	if r.store == nil {
		return "", false
	}
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Debug("setting lookup failed, using default", "key", key, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func (r *Resolver) invalid(key, raw string) {
	r.logger.Debug("invalid setting, using default", "key", key, "value", raw)
}

// ValidateSetting проверяет override перед записью в хранилище.
func ValidateSetting(key, value string) error {
	value = strings.TrimSpace(value)
	var ok bool
	switch key {
	case KeyPublishMode:
		_, ok = parsePublishMode(value)
	case KeyMoscowShare:
		_, ok = parseMoscowShare(value)
	case KeyArticlesPerDay:
		_, ok = parseArticlesPerDay(value)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if !ok {
		return fmt.Errorf("invalid value %q for %s", value, key)
	}
	return nil
}

func parsePublishMode(raw string) (domain.PublishMode, bool) {
	return domain.ParsePublishMode(strings.ToLower(raw))
}

func parseMoscowShare(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || !validShare(v) {
		return 0, false
	}
	return v, true
}

func parseArticlesPerDay(raw string) (int, bool) {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
