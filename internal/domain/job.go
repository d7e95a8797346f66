package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job — пакетный запуск сценария для списка items.
//
// Job создаётся когда:
// - Пользователь запускает job через API/CLI
// - Scheduler ставит job по расписанию
//
// Синхронные jobs выполняются в процессе API, асинхронные — воркером.
type Job struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// Status — текущий статус.
	Status JobStatus `json:"status"`

	// Items — входные items в исходном порядке.
	Items []string `json:"items"`

	// Source — кто создал job: "api", "schedule:<name>", "cli".
	Source string `json:"source,omitempty"`

	// Report — итоговый отчёт (nil, пока job не завершён).
	Report *JobReport `json:"report,omitempty"`

	// Error — ошибка уровня job (аутентификация, сессия).
	Error string `json:"error,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewJob создаёт job в статусе PENDING.
func NewJob(items []string, source string) *Job {
	return &Job{
		ID:        uuid.New(),
		Status:    JobStatusPending,
		Items:     items,
		Source:    source,
		CreatedAt: time.Now(),
	}
}

// IsFinished возвращает true, если job завершён.
func (j *Job) IsFinished() bool {
	return j.Status.IsTerminal()
}

// MarkRunning переводит job в RUNNING.
func (j *Job) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// MarkFinished сохраняет отчёт и выставляет статус по нему.
// errMsg — ошибка уровня job, может быть пустой.
func (j *Job) MarkFinished(report *JobReport, errMsg string) {
	now := time.Now()
	j.FinishedAt = &now
	j.Report = report
	j.Error = errMsg
	if report == nil {
		j.Status = JobStatusFailed
		return
	}
	j.Status = report.Status()
}

// Duration возвращает продолжительность выполнения.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}
