package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Harvest/internal/capability"
	"github.com/shaiso/Harvest/internal/domain"
	"github.com/shaiso/Harvest/internal/report"
	"github.com/shaiso/Harvest/internal/telemetry"
)

// Причины неудачи items, которые не запускались.
const (
	reasonAuthFailed   = "authentication failed"
	reasonSessionError = "session error"
	reasonNotAttempted = "not attempted"
)

// ItemRunner проводит один item через попытки.
type ItemRunner interface {
	Run(ctx context.Context, sess capability.Session, item string) (domain.ItemResult, error)
}

// Config — конфигурация Orchestrator.
type Config struct {
	Driver  capability.Driver
	Machine ItemRunner

	// Session — шаблон параметров сессии. SessionID и DownloadDir
	// задаются для каждого job.
	Session capability.SessionConfig

	// DownloadRoot — каталог, в котором создаётся подкаталог загрузок job.
	DownloadRoot string

	Logger *slog.Logger
}

// Orchestrator выполняет jobs.
type Orchestrator struct {
	driver       capability.Driver
	machine      ItemRunner
	session      capability.SessionConfig
	downloadRoot string
	logger       *slog.Logger

	// busy удерживается на время job.
	busy sync.Mutex
	now  func() time.Time
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		driver:       cfg.Driver,
		machine:      cfg.Machine,
		session:      cfg.Session,
		downloadRoot: cfg.DownloadRoot,
		logger:       logger,
		now:          time.Now,
	}
}

// Run выполняет job с новым идентификатором.
func (o *Orchestrator) Run(ctx context.Context, items []string) (*domain.JobReport, error) {
	return o.RunJob(ctx, uuid.New(), items)
}

// RunJob выполняет job jobID.
//
// При ErrSessionOpen и ErrAuthenticationFailed отчёт возвращается вместе
// с ошибкой: все items в нём FAILED без попыток. Потеря сессии посреди job
// ошибкой не считается: оставшиеся items помечаются FAILED, отчёт полный.
func (o *Orchestrator) RunJob(ctx context.Context, jobID uuid.UUID, items []string) (*domain.JobReport, error) {
	if !o.busy.TryLock() {
		return nil, ErrJobInProgress
	}
	defer o.busy.Unlock()

	items, err := NormalizeItems(items)
	if err != nil {
		return nil, err
	}

	logger := telemetry.WithJobID(o.logger, jobID.String())
	agg := report.NewAggregator(jobID, items, o.now())

	logger.Info("job started", "items", len(items))

	sess, err := o.driver.Open(ctx, o.sessionConfig(jobID))
	if err != nil {
		logger.Error("failed to open session", "error", err)
		rep, ferr := o.failRemaining(agg, fmt.Sprintf("%s: %v", reasonSessionError, err))
		if ferr != nil {
			return nil, ferr
		}
		return rep, fmt.Errorf("%w: %w", ErrSessionOpen, err)
	}
	defer o.closeSession(sess, logger)

	ok, err := sess.VerifyAuthenticated(ctx)
	if err != nil || !ok {
		reason := reasonAuthFailed
		if err != nil {
			reason = fmt.Sprintf("%s: %v", reasonAuthFailed, err)
		}
		logger.Warn("session is not authenticated", "error", err)
		telemetry.RecordAuthFailure()

		rep, ferr := o.failRemaining(agg, reason)
		if ferr != nil {
			return nil, ferr
		}
		if err != nil {
			return rep, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
		return rep, ErrAuthenticationFailed
	}
	agg.SetAuthenticated(true)

	var abort error
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			abort = err
			break
		}

		logger.Debug("processing item", "item", item, "position", i+1, "total", len(items))

		result, err := o.machine.Run(ctx, sess, item)
		if rerr := agg.Record(result); rerr != nil {
			return nil, rerr
		}
		telemetry.RecordItem(string(result.Status))

		if err != nil {
			abort = err
			logger.Error("job aborted", "item", item, "error", err)
			break
		}
	}

	reason := reasonNotAttempted
	if abort != nil {
		reason = fmt.Sprintf("%s: %v", reasonNotAttempted, abort)
	}
	rep, err := o.failRemaining(agg, reason)
	if err != nil {
		return nil, err
	}

	logger.Info("job finished",
		"successful", rep.TotalSuccessful(),
		"failed", rep.TotalFailed(),
		"duration", rep.FinishedAt.Sub(rep.StartedAt),
	)
	return rep, nil
}

// sessionConfig возвращает параметры сессии для job.
func (o *Orchestrator) sessionConfig(jobID uuid.UUID) capability.SessionConfig {
	sc := o.session
	sc.SessionID = jobID.String()
	if o.downloadRoot != "" {
		sc.DownloadDir = filepath.Join(o.downloadRoot, jobID.String())
	}
	return sc
}

// failRemaining помечает items без результата как FAILED и финализирует отчёт.
func (o *Orchestrator) failRemaining(agg *report.Aggregator, reason string) (*domain.JobReport, error) {
	for _, item := range agg.Pending() {
		if err := agg.Record(domain.Failed(item, nil, reason)); err != nil {
			return nil, err
		}
		telemetry.RecordItem(string(domain.ItemStatusFailed))
	}

	rep, err := agg.Finalize()
	if err != nil {
		return nil, err
	}
	telemetry.RecordJob(string(rep.Status()))
	return rep, nil
}

func (o *Orchestrator) closeSession(sess capability.Session, logger *slog.Logger) {
	if err := sess.Close(); err != nil && !errors.Is(err, capability.ErrSessionLost) {
		logger.Warn("failed to close session", "error", err)
	}
}
