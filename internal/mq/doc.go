// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация триггеров ежедневного запуска
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - job.daily_run — запрос на один запуск пайплайна
//
// Exchanges:
//   - seoagent.jobs — триггеры запусков
//   - seoagent.dlq  — dead letter queue
package mq
