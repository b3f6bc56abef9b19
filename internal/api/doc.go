// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (хранилища за интерфейсами, publisher, logger)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (request id, logging, recovery)
//   - response.go        — унифицированные JSON-ответы и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - job_handler.go     — /jobs, постановка ежедневного запуска в очередь
//   - article_handler.go — /articles, одобрение статей
//   - cluster_handler.go — /clusters
//   - setting_handler.go — /settings
//
// Пайплайн API не выполняет: POST /jobs/run_daily только публикует
// job.daily_run, запуск делает worker.
package api
