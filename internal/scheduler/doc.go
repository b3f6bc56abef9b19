// Package scheduler запускает ежедневный пайплайн по cron-расписанию.
//
// На каждое срабатывание Scheduler проверяет суточную квоту
// (articles_per_day) и публикует job.daily_run в RabbitMQ. Если очередь
// не настроена, пайплайн выполняется в текущем процессе.
//
// Структура:
//   - scheduler.go — Scheduler (Fire, Run)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//   - leader.go    — leader election через pg_try_advisory_lock
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Spec:     cfg.DailyCron,
//	    Location: scheduler.LoadLocation(cfg.CronTimezone),
//	    Enqueuer: publisher, // опционально
//	    Runner:   orch,
//	    Quota:    q,
//	    Limits:   resolver,
//	    Logger:   logger,
//	})
//
//	if err := leader.Wait(ctx, 5*time.Second); err == nil {
//	    _ = sched.Run(ctx)
//	}
//
// Run вызывается только лидером: несколько экземпляров планировщика
// не должны ставить в очередь один и тот же запуск.
package scheduler
