// Package engine проводит один item через фиксированную последовательность
// шагов удалённого UI.
//
// Включает:
//   - state.go   — состояния и чистая функция перехода Next
//   - plan.go    — Target (URL и селекторы) и Plan: упорядоченный список переходов
//   - backoff.go — задержка между попытками
//   - machine.go — Machine: выполнение попыток, снимки, проверка export, retry
//
// Последовательность состояний одной попытки:
//
//	Start → Navigating → InputEntered → SearchTriggered → ResultsReady →
//	ExportTriggered → FormatSelected → Downloading → Verified
//
// Из любого состояния ошибка шага переводит попытку в AttemptFailed.
// Каждый переход — ровно один вызов capability; состояния не пропускаются
// и не повторяются внутри попытки. Следующая попытка начинается заново
// с Navigating.
//
// Machine никогда не закрывает Session: ею владеет Orchestrator.
package engine
