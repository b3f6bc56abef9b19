// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики пайплайна
//   - server.go — служебный HTTP сервер (/healthz, /metrics)
//
// Worker и scheduler используют единый формат логирования
// и экспортируют метрики на /metrics endpoint.
package telemetry
