package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Harvest/internal/domain"
)

// Job DTOs

// RunJobRequest — запрос на запуск job.
type RunJobRequest struct {
	Items []string `json:"items"`
}

// JobResponse — ответ с job.
type JobResponse struct {
	ID         uuid.UUID         `json:"id"`
	Status     string            `json:"status"`
	Items      []string          `json:"items"`
	Source     string            `json:"source,omitempty"`
	Report     *domain.JobReport `json:"report,omitempty"`
	Error      string            `json:"error,omitempty"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// JobFromDomain конвертирует domain.Job в JobResponse.
func JobFromDomain(j domain.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		Status:     string(j.Status),
		Items:      j.Items,
		Source:     j.Source,
		Report:     j.Report,
		Error:      j.Error,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		CreatedAt:  j.CreatedAt,
	}
}

// EnqueueResponse — ответ на постановку job в очередь.
type EnqueueResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// ReportErrorResponse — ошибка уровня job вместе с отчётом.
type ReportErrorResponse struct {
	Error  ErrorDetail       `json:"error"`
	Report *domain.JobReport `json:"report,omitempty"`
}

// Keyword DTOs

// KeywordsRequest — новый список keywords.
type KeywordsRequest struct {
	Keywords []string `json:"keywords"`
}

// KeywordsResponse — текущий список keywords.
type KeywordsResponse struct {
	Keywords  []string  `json:"keywords"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MatchRequest — текст для проверки.
type MatchRequest struct {
	Text string `json:"text"`
}

// MatchResponse — результат проверки.
type MatchResponse struct {
	Matched bool   `json:"matched"`
	Keyword string `json:"keyword,omitempty"`
	Version uint64 `json:"version"`
}
