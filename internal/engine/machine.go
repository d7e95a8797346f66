package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shaiso/Harvest/internal/artifact"
	"github.com/shaiso/Harvest/internal/capability"
	"github.com/shaiso/Harvest/internal/domain"
	"github.com/shaiso/Harvest/internal/telemetry"
)

// ArtifactStore — хранилище снимков и export-файлов.
type ArtifactStore interface {
	Save(ctx context.Context, kind artifact.Kind, item string, attempt int, label string, data []byte) (string, error)
	SaveFile(ctx context.Context, kind artifact.Kind, item string, attempt int, label, srcPath string) (string, error)
}

// Config — конфигурация Machine.
type Config struct {
	Target Target
	Policy domain.RetryPolicy
	Store  ArtifactStore
	Logger *slog.Logger

	// Sleep — ожидание между попытками (для тестов).
	Sleep func(ctx context.Context, d time.Duration) error
}

// Machine выполняет попытки одного item на переданной Session.
type Machine struct {
	target Target
	policy domain.RetryPolicy
	store  ArtifactStore
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewMachine создаёт Machine.
func NewMachine(cfg Config) *Machine {
	policy := cfg.Policy
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = domain.DefaultRetryPolicy().MaxAttempts
	}
	if policy.Backoff == "" {
		policy.Backoff = domain.BackoffFixed
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Machine{
		target: cfg.Target.WithDefaults(),
		policy: policy,
		store:  cfg.Store,
		logger: logger,
		sleep:  sleep,
	}
}

// Policy возвращает действующую политику повторов.
func (m *Machine) Policy() domain.RetryPolicy {
	return m.policy
}

// Run проводит item через попытки до успеха или исчерпания MaxAttempts.
//
// Ошибка возвращается только для фатальных ситуаций (сессия потеряна,
// ctx отменён); ItemResult при этом уже финальный и содержит все попытки.
func (m *Machine) Run(ctx context.Context, sess capability.Session, item string) (domain.ItemResult, error) {
	logger := telemetry.WithItem(m.logger, item)
	attempts := make([]domain.Attempt, 0, m.policy.MaxAttempts)

	for n := 1; n <= m.policy.MaxAttempts; n++ {
		attempt, err := m.runAttempt(ctx, sess, item, n, logger)
		attempts = append(attempts, *attempt)

		if attempt.Status == domain.AttemptStatusSucceeded {
			logger.Info("item succeeded", "attempt", n, "export", attempt.ExportPath)
			return domain.Succeeded(item, attempt.ExportPath, attempts), nil
		}

		logger.Warn("attempt failed",
			"attempt", n,
			"max_attempts", m.policy.MaxAttempts,
			"step", attempt.FailedStep,
			"error", attempt.Error,
		)

		if capability.IsFatal(err) {
			return domain.Failed(item, attempts, attempt.Error), err
		}
		if ctx.Err() != nil {
			return domain.Failed(item, attempts, attempt.Error), ctx.Err()
		}

		if n < m.policy.MaxAttempts {
			delay := Backoff(n, m.policy)
			logger.Debug("retrying item", "next_attempt", n+1, "delay", delay)
			if err := m.sleep(ctx, delay); err != nil {
				return domain.Failed(item, attempts, attempt.Error), err
			}
		}
	}

	last := attempts[len(attempts)-1]
	return domain.Failed(item, attempts, last.Error), nil
}

// runAttempt выполняет одну попытку. Возвращённая попытка всегда финальная.
func (m *Machine) runAttempt(ctx context.Context, sess capability.Session, item string, n int, logger *slog.Logger) (*domain.Attempt, error) {
	attempt := domain.NewAttempt(item, n)
	state := StateStart

	var download, export string
	for _, tr := range Plan(m.target, item) {
		start := time.Now()
		path, err := m.perform(ctx, sess, tr, item, n, download)
		telemetry.ObserveStep(tr.Step.Name, time.Since(start), err)

		state = Advance(state, err)
		if err != nil {
			m.snapshot(ctx, sess, attempt, tr.Step.Name+"_failed", logger)
			attempt.MarkFailed(tr.Step.Name, err.Error())
			telemetry.RecordAttempt(string(domain.AttemptStatusFailed))
			return attempt, err
		}

		switch tr.Kind {
		case KindDownload:
			download = path
		case KindVerify:
			export = path
		}

		logger.Debug("transition", "attempt", n, "state", state)
		m.snapshot(ctx, sess, attempt, tr.Step.Name, logger)
	}

	attempt.MarkSucceeded(export)
	telemetry.RecordAttempt(string(domain.AttemptStatusSucceeded))
	return attempt, nil
}

// perform выполняет один переход. Для download возвращает путь загрузки,
// для verify — путь сохранённого export.
func (m *Machine) perform(ctx context.Context, sess capability.Session, tr Transition, item string, n int, download string) (string, error) {
	switch tr.Kind {
	case KindStep:
		return "", sess.RunStep(ctx, tr.Step)
	case KindDownload:
		return sess.AwaitDownload(ctx, tr.Step)
	case KindVerify:
		return m.verify(ctx, item, n, download)
	default:
		return "", fmt.Errorf("%w: unknown transition kind %q", ErrInvalidPlan, tr.Kind)
	}
}

// verify проверяет, что загрузка непустая, и переносит её в хранилище.
func (m *Machine) verify(ctx context.Context, item string, n int, download string) (string, error) {
	if download == "" {
		return "", ErrEmptyArtifact
	}
	info, err := os.Stat(download)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return "", ErrEmptyArtifact
	}

	if m.store == nil {
		return download, nil
	}

	path, err := m.store.SaveFile(ctx, artifact.KindExport, item, n, item+"_export", download)
	if err != nil {
		return "", fmt.Errorf("store export: %w", err)
	}
	if err := os.Remove(download); err != nil {
		m.logger.Warn("remove stored download", "path", download, "error", err)
	}
	return path, nil
}

// snapshot делает снимок после перехода. Ошибки только логируются.
func (m *Machine) snapshot(ctx context.Context, sess capability.Session, attempt *domain.Attempt, step string, logger *slog.Logger) {
	label := fmt.Sprintf("%s_%s_attempt%d", attempt.Item, step, attempt.Number)

	path, err := m.captureSnapshot(ctx, sess, attempt, label)
	if err != nil {
		telemetry.RecordSnapshotFailure()
		logger.Warn("snapshot failed", "label", label, "error", err)
		return
	}
	attempt.AddSnapshot(path)
}

func (m *Machine) captureSnapshot(ctx context.Context, sess capability.Session, attempt *domain.Attempt, label string) (string, error) {
	if m.store == nil {
		return "", errors.New("no artifact store")
	}

	data, err := sess.CaptureSnapshot(ctx, label)
	if err != nil {
		return "", fmt.Errorf("capture: %w", err)
	}

	path, err := m.store.Save(ctx, artifact.KindSnapshot, attempt.Item, attempt.Number, label+".html", data)
	if err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	return path, nil
}
