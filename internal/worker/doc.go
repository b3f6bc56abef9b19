// Package worker выполняет ежедневные запуски пайплайна из очереди.
//
// # Обзор
//
// Worker потребляет job.daily_run из очереди jobs.daily_run и на каждое
// сообщение вызывает Orchestrator.RunDailyPipeline. Один запуск на
// сообщение; повторов нет ни в пайплайне, ни в очереди.
//
//	w := worker.New(worker.Config{
//	    Runner: orch,
//	    Jobs:   jobRepo,
//	    Conn:   mqConn,
//	    Logger: logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Подтверждение сообщений
//
//   - запуск завершён (включая quality gate и pending approval) — ack
//   - нет активных кластеров — ack, повтор ничего не изменит
//   - неизвестный тип, битый payload, ошибка хранилища, отмена — nack
//     без requeue, сообщение уходит в dlq.jobs
//
// # Зависшие jobs
//
// Если процесс упал посреди запуска, job остаётся в running. Worker
// периодически находит такие jobs (старше StaleAfter) и закрывает их
// как FAILED. Финализация идёт через тот же guard status='running',
// поэтому job, завершившийся параллельно, не перезаписывается.
package worker
