package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobReport — итог job: по одной записи на каждый входной item.
//
// Инвариант: len(Successful) + len(Failed) == len(Results), списки
// не пересекаются и покрывают все входные items.
type JobReport struct {
	// JobID — идентификатор job.
	JobID uuid.UUID `json:"job_id"`

	// StartedAt — время начала job.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время финализации отчёта.
	FinishedAt time.Time `json:"finished_at"`

	// Authenticated — выполнено ли условие аутентификации сессии.
	Authenticated bool `json:"authenticated"`

	// Results — результаты в порядке входных items.
	Results []ItemResult `json:"results"`

	// Successful — успешные items в порядке входа.
	Successful []string `json:"successful_items"`

	// Failed — неуспешные items в порядке входа.
	Failed []string `json:"failed_items"`

	// ErrorDetails — причины неудач в порядке Failed.
	ErrorDetails []ErrorDetail `json:"error_details"`
}

// ErrorDetail — причина неудачи одного item.
type ErrorDetail struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// Success возвращает true, если ни один item не упал.
func (r *JobReport) Success() bool {
	return len(r.Failed) == 0
}

// TotalSuccessful возвращает количество успешных items.
func (r *JobReport) TotalSuccessful() int {
	return len(r.Successful)
}

// TotalFailed возвращает количество неуспешных items.
func (r *JobReport) TotalFailed() int {
	return len(r.Failed)
}

// Status возвращает итоговый статус job по отчёту.
func (r *JobReport) Status() JobStatus {
	if r.Success() {
		return JobStatusSucceeded
	}
	return JobStatusFailed
}

// Result возвращает результат item по идентификатору.
func (r *JobReport) Result(item string) (ItemResult, bool) {
	for _, res := range r.Results {
		if res.Item == item {
			return res, true
		}
	}
	return ItemResult{}, false
}

// MarshalJSON добавляет вычисляемые поля success, total_successful и total_failed.
func (r JobReport) MarshalJSON() ([]byte, error) {
	type plain JobReport
	return json.Marshal(struct {
		Success bool `json:"success"`
		plain
		TotalSuccessful int `json:"total_successful"`
		TotalFailed     int `json:"total_failed"`
	}{
		Success:         len(r.Failed) == 0,
		plain:           plain(r),
		TotalSuccessful: len(r.Successful),
		TotalFailed:     len(r.Failed),
	})
}
