package worker

import "errors"

// Ошибки воркера.
var (
	// ErrJobNotPending — job уже взят или завершён.
	ErrJobNotPending = errors.New("job is not in PENDING status")

	// ErrWorkerStopped — воркер остановлен.
	ErrWorkerStopped = errors.New("worker stopped")
)
