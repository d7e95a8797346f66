// Package mq предоставляет инфраструктуру RabbitMQ для асинхронных jobs.
//
// Структура:
//   - connection.go — соединение с reconnect и graceful shutdown
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация событий jobs
//   - consumer.go   — потребление с ручным ack
//
// Типы сообщений:
//   - job.requested  — job создан и ждёт воркера
//   - job.completed  — job завершён, отчёт сохранён
//
// Exchanges:
//   - harvest.jobs   — события jobs
//   - harvest.dlq    — dead letter queue
package mq
