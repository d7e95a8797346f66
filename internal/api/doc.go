// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (runner, хранилище jobs, publisher, artifacts, filter)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - job_handler.go      — обработчики для /jobs
//   - artifact_handler.go — выгрузка архива exports
//   - keyword_handler.go  — список negative keywords
//
// Синхронный запуск (POST /api/v1/jobs) выполняет job в процессе API;
// POST /api/v1/jobs/enqueue ставит его в очередь воркеру.
package api
