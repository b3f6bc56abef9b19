// Package cli реализует инструмент командной строки seoagent.
//
// # Обзор
//
// CLI работает напрямую с БД и Orchestrator: запускает пайплайн
// синхронно, показывает jobs и статьи, заводит кластеры и runtime
// overrides, применяет схему.
//
// # Ключевые компоненты
//
// ## App
//
// Зависимости команд за интерфейсами (JobReader, ArticleReader,
// ClusterStore, SettingStore, Pipeline). Open собирает App из
// config.Config поверх пула pgx; в тестах App собирается из fakes.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.Encoder) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: seoagent job list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - run: синхронный запуск пайплайна (--dry-run)
//   - job: list, show
//   - article: list, show
//   - cluster: add, list
//   - setting: set, get
//   - migrate
//
// Каждая группа создаётся фабричной функцией (NewJobCmd и т.д.),
// принимающей appFn и outputFn — замыкания для ленивого создания
// App и Output после парсинга PersistentFlags.
package cli
