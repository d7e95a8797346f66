// Package capability описывает границу между ядром Harvest и удалённым UI.
//
// Ядро не реализует навигацию, поиск элементов, клики и загрузку файлов —
// оно вызывает их через интерфейсы Driver и Session:
//
//	type Session interface {
//	    ID() string
//	    VerifyAuthenticated(ctx context.Context) (bool, error)
//	    RunStep(ctx context.Context, step Step) error
//	    AwaitDownload(ctx context.Context, trigger Step) (string, error)
//	    CaptureSnapshot(ctx context.Context, label string) ([]byte, error)
//	    Close() error
//	}
//
// Одна Session — одно удалённое соединение (браузерный контекст).
// Session не потокобезопасна в смысле UI-состояния: её ведёт один
// Orchestrator, шаги выполняются строго последовательно.
//
// # Ошибки
//
//   - ErrSession — сессию не удалось открыть (фатально для job)
//   - ErrSessionLost — сессия потеряна во время работы (фатально для job)
//   - ErrStepTimeout, ErrElementNotFound, ErrDownload — ошибки шага,
//     на них срабатывает retry item
//
// # Реализации
//
//   - httpdriver — удалённый UI с серверным рендерингом, поверх HTTP
//     с cookie jar и goquery
package capability
