package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrNoItems — пустой список items.
	ErrNoItems = errors.New("no items to process")

	// ErrInvalidItem — пустой или повторяющийся идентификатор item.
	ErrInvalidItem = errors.New("invalid item")

	// ErrSessionOpen — не удалось открыть удалённую сессию.
	ErrSessionOpen = errors.New("failed to open session")

	// ErrAuthenticationFailed — сессия не признана авторизованной.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrJobInProgress — в процессе уже выполняется job.
	ErrJobInProgress = errors.New("another job is in progress")
)
