// Package orchestrator выполняет ежедневный SEO-пайплайн.
//
// Orchestrator отвечает за:
//   - Создание job (сразу в статусе running)
//   - Выбор кластера и целевого ключевого слова
//   - Последовательный вызов стадий: intent → draft → optimize → quality → publish
//   - Решение о live-публикации (policy.ShouldPublishLive)
//   - Сохранение статьи и финализацию job ровно один раз на любом пути выхода
//
// Orchestrator ничего не повторяет сам: решение о повторном запуске
// принимает вызывающий слой (scheduler / worker).
package orchestrator
