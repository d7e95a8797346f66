package capability

import (
	"context"
	"fmt"
	"time"
)

// Action — тип атомарного UI-шага.
type Action string

const (
	// ActionNavigate — переход на URL.
	ActionNavigate Action = "navigate"

	// ActionWait — ожидание появления элемента.
	ActionWait Action = "wait"

	// ActionFill — ввод значения в поле.
	ActionFill Action = "fill"

	// ActionPress — нажатие клавиши в поле (Value — имя клавиши).
	ActionPress Action = "press"

	// ActionClick — клик по элементу.
	ActionClick Action = "click"
)

// Step — описание одного атомарного шага.
type Step struct {
	// Name — имя шага для логов и снимков.
	Name string

	// Action — тип действия.
	Action Action

	// URL — адрес для navigate.
	URL string

	// Selector — CSS-селектор элемента.
	Selector string

	// Value — значение для fill или клавиша для press. Для navigate —
	// item, попытку которого открывает переход; драйверу он не нужен.
	Value string

	// Timeout — бюджет ожидания шага. Если 0, используется
	// SessionConfig.StepTimeout.
	Timeout time.Duration
}

// String возвращает краткое описание шага.
func (s Step) String() string {
	switch s.Action {
	case ActionNavigate:
		return fmt.Sprintf("%s(%s %s)", s.Name, s.Action, s.URL)
	default:
		return fmt.Sprintf("%s(%s %s)", s.Name, s.Action, s.Selector)
	}
}

// Cookie — cookie для предзагрузки в сессию.
//
// Формат совпадает с экспортом cookies из браузера, поэтому
// blob из конфигурации десериализуется напрямую.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
}

// SessionConfig — параметры открытия сессии.
type SessionConfig struct {
	// SessionID — идентификатор сессии (обычно ID job).
	SessionID string

	// Cookies — внешние учётные данные сессии.
	Cookies []Cookie

	// DownloadDir — каталог для загруженных файлов.
	DownloadDir string

	// StepTimeout — бюджет шага по умолчанию.
	StepTimeout time.Duration

	// UserAgent — заголовок User-Agent.
	UserAgent string

	// ViewportWidth, ViewportHeight — размеры окна (подсказка для драйвера).
	ViewportWidth  int
	ViewportHeight int
}

// Driver открывает удалённые сессии.
type Driver interface {
	Open(ctx context.Context, cfg SessionConfig) (Session, error)
}

// Session — одна удалённая сессия.
type Session interface {
	// ID возвращает идентификатор сессии.
	ID() string

	// VerifyAuthenticated переходит на страницу, доступную только
	// авторизованным, и сообщает, признана ли сессия залогиненной.
	VerifyAuthenticated(ctx context.Context) (bool, error)

	// RunStep выполняет один атомарный шаг в пределах бюджета.
	RunStep(ctx context.Context, step Step) error

	// AwaitDownload выполняет шаг, который должен породить файл,
	// и возвращает путь сохранённого файла.
	AwaitDownload(ctx context.Context, trigger Step) (string, error)

	// CaptureSnapshot возвращает диагностический снимок текущего состояния.
	CaptureSnapshot(ctx context.Context, label string) ([]byte, error)

	// Close закрывает сессию. Повторный вызов безопасен.
	Close() error
}

// EffectiveTimeout возвращает бюджет шага с учётом значения по умолчанию.
func EffectiveTimeout(step Step, fallback time.Duration) time.Duration {
	if step.Timeout > 0 {
		return step.Timeout
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultStepTimeout
}

// DefaultStepTimeout — бюджет шага, если не задан ни в шаге, ни в сессии.
const DefaultStepTimeout = 30 * time.Second
