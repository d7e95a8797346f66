package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Harvest/internal/domain"
	"github.com/shaiso/Harvest/internal/mq"
	"github.com/shaiso/Harvest/internal/orchestrator"
	"github.com/shaiso/Harvest/internal/repo"
	"github.com/shaiso/Harvest/internal/telemetry"
)

// Default configuration values.
const (
	defaultPollInterval = 30 * time.Second
	defaultBatchSize    = 10
)

// JobStore — хранилище jobs.
type JobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	ListPending(ctx context.Context, limit int) ([]domain.Job, error)
	MarkRunning(ctx context.Context, job *domain.Job) error
	Update(ctx context.Context, job *domain.Job) error
}

// Runner выполняет job. Реализуется orchestrator.Orchestrator.
type Runner interface {
	RunJob(ctx context.Context, jobID uuid.UUID, items []string) (*domain.JobReport, error)
}

// CompletionPublisher публикует итог job.
type CompletionPublisher interface {
	PublishJobCompleted(ctx context.Context, payload mq.JobCompletedPayload) error
}

// Config — конфигурация Worker.
type Config struct {
	Jobs      JobStore
	Runner    Runner
	Publisher CompletionPublisher // опционально

	// Conn — соединение для consumer. Если nil, работает только polling.
	Conn *mq.Connection

	PollInterval time.Duration // default: 30s
	BatchSize    int           // default: 10

	Logger *slog.Logger
}

// Worker выполняет jobs из очереди и из БД.
type Worker struct {
	jobs      JobStore
	runner    Runner
	publisher CompletionPublisher
	conn      *mq.Connection

	pollInterval time.Duration
	batchSize    int

	// mu сериализует выполнение jobs между consumer и polling
	mu sync.Mutex

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		jobs:         cfg.Jobs,
		runner:       cfg.Runner,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       logger.With("component", "worker"),
	}
}

// Start запускает consumer (если есть соединение) и polling.
func (w *Worker) Start(ctx context.Context) error {
	if w.IsStopped() {
		return ErrWorkerStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	if w.conn != nil {
		consumer := mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:   mq.QueueJobsRequested,
			Handler: w.handleJobRequested,
		})

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("job consumer error", "error", err)
			}
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	return nil
}

// Stop останавливает Worker и ждёт текущий job.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// handleJobRequested обрабатывает сообщение job.requested.
func (w *Worker) handleJobRequested(ctx context.Context, msg *mq.Message) error {
	payload, err := mq.ParsePayload[mq.JobRequestedPayload](msg)
	if err != nil {
		return fmt.Errorf("parse job.requested: %w", err)
	}

	err = w.ProcessJob(ctx, payload.JobID)
	switch {
	case err == nil, errors.Is(err, ErrJobNotPending):
		return nil
	case errors.Is(err, orchestrator.ErrJobInProgress), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", mq.ErrRequeue, err)
	default:
		return err
	}
}

// pollLoop подхватывает PENDING jobs, сообщения о которых потерялись.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Worker) poll(ctx context.Context) {
	jobs, err := w.jobs.ListPending(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	for i := range jobs {
		if ctx.Err() != nil {
			return
		}
		err := w.ProcessJob(ctx, jobs[i].ID)
		if err != nil && !errors.Is(err, ErrJobNotPending) {
			w.logger.Error("failed to process job from poll", "job_id", jobs[i].ID, "error", err)
		}
	}
}

// ProcessJob выполняет один PENDING job и сохраняет его отчёт.
func (w *Worker) ProcessJob(ctx context.Context, jobID uuid.UUID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	logger := telemetry.WithJobID(w.logger, jobID.String())

	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	if job.Status != domain.JobStatusPending {
		return ErrJobNotPending
	}

	if err := w.jobs.MarkRunning(ctx, job); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			return ErrJobNotPending
		}
		return fmt.Errorf("mark running: %w", err)
	}

	logger.Info("running job", "items", len(job.Items), "source", job.Source)

	rep, runErr := w.runner.RunJob(ctx, job.ID, job.Items)
	if errors.Is(runErr, orchestrator.ErrJobInProgress) {
		// вернуть job другому вызову
		job.Status = domain.JobStatusPending
		job.StartedAt = nil
		if err := w.jobs.Update(ctx, job); err != nil {
			logger.Error("failed to release job", "error", err)
		}
		return runErr
	}

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		logger.Warn("job finished with error", "error", runErr)
	}
	job.MarkFinished(rep, errMsg)

	// отчёт сохраняем даже после отмены ctx
	saveCtx := context.WithoutCancel(ctx)
	if err := w.jobs.Update(saveCtx, job); err != nil {
		return fmt.Errorf("save job: %w", err)
	}

	w.publishCompleted(saveCtx, job, logger)

	logger.Info("job saved", "status", job.Status)
	return nil
}

func (w *Worker) publishCompleted(ctx context.Context, job *domain.Job, logger *slog.Logger) {
	if w.publisher == nil {
		return
	}

	payload := mq.JobCompletedPayload{
		JobID:  job.ID,
		Status: string(job.Status),
		Error:  job.Error,
	}
	if job.Report != nil {
		payload.Successful = job.Report.Successful
		payload.Failed = job.Report.Failed
	}

	if err := w.publisher.PublishJobCompleted(ctx, payload); err != nil {
		logger.Warn("failed to publish job.completed", "error", err)
	}
}
