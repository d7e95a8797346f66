package artifact

import "errors"

var (
	// ErrNoArtifacts — в хранилище нет export-файлов.
	ErrNoArtifacts = errors.New("no artifacts")

	// ErrInvalidKind — неизвестный тип артефакта.
	ErrInvalidKind = errors.New("invalid artifact kind")

	// ErrInvalidAttempt — номер попытки должен быть >= 1.
	ErrInvalidAttempt = errors.New("invalid attempt number")
)
