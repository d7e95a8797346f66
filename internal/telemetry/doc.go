// Package telemetry обеспечивает наблюдаемость Harvest.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики jobs, items, попыток и шагов
//
// Все сервисы используют единый формат логирования
// и экспортируют метрики на /metrics endpoint.
package telemetry
