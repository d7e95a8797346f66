package capability

import "errors"

// Ошибки capability.
var (
	// ErrSession — не удалось открыть сессию.
	ErrSession = errors.New("session error")

	// ErrSessionLost — сессия потеряна или закрыта во время работы.
	ErrSessionLost = errors.New("session lost")

	// ErrStepTimeout — ожидаемое состояние не достигнуто в пределах бюджета.
	ErrStepTimeout = errors.New("step timeout")

	// ErrElementNotFound — элемент не найден на странице.
	ErrElementNotFound = errors.New("element not found")

	// ErrDownload — файл не появился в пределах бюджета.
	ErrDownload = errors.New("download failed")

	// ErrUnsupportedAction — драйвер не поддерживает действие шага.
	ErrUnsupportedAction = errors.New("unsupported step action")
)

// IsFatal возвращает true для ошибок уровня сессии, после которых
// продолжать job бессмысленно.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrSessionLost) || errors.Is(err, ErrSession)
}
