// Package stages — шлюз к пяти внешним стадиям пайплайна.
//
// Стадии: intent (serp-intel), draft (content-gen), optimize (seo-optimizer),
// quality (quality-gate), publish (publisher).
//
// Для каждой стадии есть две реализации одного порта:
//   - Client — HTTP/JSON вызов внешнего сервиса с таймаутом на стадию
//   - Fallback — детерминированная локальная заглушка
//
// Gateway оборачивает обе: любая ошибка Client заменяется результатом
// Fallback, ошибки наружу не выходят. Подмена видна по полю Degraded,
// логируется как stage.degraded и считается в метрике seoagent_stage_fallbacks_total.
package stages
