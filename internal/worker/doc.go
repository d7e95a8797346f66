// Package worker выполняет асинхронные jobs.
//
// # Обзор
//
// Worker получает запросы из очереди jobs.requested и периодически
// проверяет PENDING jobs в БД (polling fallback). Для каждого job:
//
//  1. Атомарно переводит его в RUNNING (другой worker его уже не возьмёт)
//  2. Запускает Orchestrator с items из БД
//  3. Сохраняет отчёт и публикует job.completed
//
// Один процесс выполняет один job за раз: сессия с внешним сервисом
// одна. Если orchestrator занят, сообщение возвращается в очередь.
//
// # Использование
//
//	w := worker.New(worker.Config{
//	    Jobs:      jobRepo,
//	    Runner:    orch,
//	    Publisher: publisher,
//	    Conn:      mqConn,
//	    Logger:    logger,
//	})
//	w.Start(ctx)
//	defer w.Stop()
package worker
