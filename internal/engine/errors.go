package engine

import "errors"

var (
	// ErrEmptyArtifact — загрузка завершилась, но файла нет или он пустой.
	ErrEmptyArtifact = errors.New("empty or missing artifact")

	// ErrInvalidPlan — Plan нарушает порядок состояний.
	ErrInvalidPlan = errors.New("invalid transition plan")
)
