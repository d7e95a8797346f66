// Package orchestrator выполняет job: одна удалённая сессия на весь
// пакет items.
//
// Orchestrator отвечает за:
//   - Проверку и нормализацию входных items
//   - Открытие сессии и проверку аутентификации (один раз на job)
//   - Последовательный проход items через engine.Machine
//   - Закрытие сессии на любом пути выхода
//   - Сбор результатов в JobReport
//
// Сессия — единственный изменяемый общий ресурс, поэтому в процессе
// одновременно выполняется не больше одного job (ErrJobInProgress).
package orchestrator
