package api

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Harvest/internal/domain"
	"github.com/shaiso/Harvest/internal/filter"
	"github.com/shaiso/Harvest/internal/repo"
)

// JobRunner выполняет job синхронно.
type JobRunner interface {
	RunJob(ctx context.Context, jobID uuid.UUID, items []string) (*domain.JobReport, error)
}

// JobStore — история jobs.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	List(ctx context.Context, filter repo.JobFilter) ([]domain.Job, error)
	Update(ctx context.Context, job *domain.Job) error
}

// JobPublisher ставит job в очередь.
type JobPublisher interface {
	PublishJobRequested(ctx context.Context, jobID uuid.UUID) error
}

// ArtifactSource упаковывает сохранённые exports.
type ArtifactSource interface {
	ExportArchive(w io.Writer) error
}

// KeywordFilter — список negative keywords.
type KeywordFilter interface {
	Snapshot() *filter.Snapshot
	Update(keywords []string) (*filter.Snapshot, error)
}

// Handler — главный обработчик API с зависимостями.
// Любая зависимость может быть nil: соответствующие endpoints отвечают 503.
type Handler struct {
	runner    JobRunner
	jobs      JobStore
	publisher JobPublisher
	artifacts ArtifactSource
	keywords  KeywordFilter
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Runner    JobRunner
	Jobs      JobStore
	Publisher JobPublisher
	Artifacts ArtifactSource
	Keywords  KeywordFilter
	Logger    *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		runner:    cfg.Runner,
		jobs:      cfg.Jobs,
		publisher: cfg.Publisher,
		artifacts: cfg.Artifacts,
		keywords:  cfg.Keywords,
		logger:    logger,
	}
}
