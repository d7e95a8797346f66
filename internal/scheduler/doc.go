// Package scheduler ставит jobs по расписаниям из конфигурации.
//
// Расписание — cron-выражение (5 полей) с timezone и списком items.
// На каждом тике Scheduler создаёт job для расписаний с истекшим nextDue
// и публикует job.requested.
//
// Структура:
//   - scheduler.go — Scheduler (Tick, Run)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Schedules: cfg.Schedules,
//	    Jobs:      jobRepo,
//	    Publisher: publisher,  // опционально
//	    Logger:    logger,
//	})
//	sched.Run(ctx, time.Second)
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock.
// Метод Tick() вызывается только лидером.
package scheduler
