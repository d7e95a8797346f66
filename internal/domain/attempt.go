package domain

import "time"

// Attempt — одна попытка пройти фиксированную последовательность шагов для item.
//
// Attempt создаётся Machine'ом в начале каждой попытки и больше не меняется
// после перехода в финальный статус. После завершения item все попытки
// передаются в Aggregator в составе ItemResult.
type Attempt struct {
	// Item — идентификатор item.
	Item string `json:"item"`

	// Number — номер попытки (начиная с 1, не больше MaxAttempts).
	Number int `json:"number"`

	// Status — исход попытки.
	Status AttemptStatus `json:"status"`

	// FailedStep — имя шага, на котором попытка упала.
	FailedStep string `json:"failed_step,omitempty"`

	// Error — причина неудачи.
	Error string `json:"error,omitempty"`

	// Snapshots — пути диагностических снимков в порядке шагов.
	Snapshots []string `json:"snapshots,omitempty"`

	// ExportPath — путь к выгруженному файлу (только при успехе).
	ExportPath string `json:"export_path,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewAttempt создаёт попытку в статусе PENDING.
func NewAttempt(item string, number int) *Attempt {
	return &Attempt{
		Item:      item,
		Number:    number,
		Status:    AttemptStatusPending,
		StartedAt: time.Now(),
	}
}

// AddSnapshot добавляет путь снимка. Пустые пути игнорируются.
func (a *Attempt) AddSnapshot(path string) {
	if path == "" || a.Status.IsTerminal() {
		return
	}
	a.Snapshots = append(a.Snapshots, path)
}

// MarkSucceeded переводит попытку в SUCCEEDED с путём export-файла.
func (a *Attempt) MarkSucceeded(exportPath string) {
	if a.Status.IsTerminal() {
		return
	}
	now := time.Now()
	a.Status = AttemptStatusSucceeded
	a.ExportPath = exportPath
	a.FinishedAt = &now
}

// MarkFailed переводит попытку в FAILED.
func (a *Attempt) MarkFailed(step, reason string) {
	if a.Status.IsTerminal() {
		return
	}
	now := time.Now()
	a.Status = AttemptStatusFailed
	a.FailedStep = step
	a.Error = reason
	a.FinishedAt = &now
}

// Duration возвращает продолжительность попытки.
// Возвращает 0, если попытка ещё не завершена.
func (a *Attempt) Duration() time.Duration {
	if a.FinishedAt == nil {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}
