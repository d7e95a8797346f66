package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Harvest/internal/domain"
)

// JobCreator сохраняет новый job.
type JobCreator interface {
	Create(ctx context.Context, job *domain.Job) error
}

// JobPublisher ставит job в очередь воркеру.
type JobPublisher interface {
	PublishJobRequested(ctx context.Context, jobID uuid.UUID) error
}

// Scheduler ставит jobs по расписаниям из конфигурации.
type Scheduler struct {
	jobs      JobCreator
	publisher JobPublisher
	logger    *slog.Logger

	mu      sync.Mutex
	entries []*entry
}

type entry struct {
	schedule domain.Schedule
	nextDue  time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules []domain.Schedule
	Jobs      JobCreator
	Publisher JobPublisher // опционально: без него jobs подхватит polling воркера
	Logger    *slog.Logger

	// Now — время старта (default: time.Now()).
	Now time.Time
}

// New создаёт Scheduler. Выключенные расписания пропускаются.
func New(cfg Config) (*Scheduler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}

	s := &Scheduler{
		jobs:      cfg.Jobs,
		publisher: cfg.Publisher,
		logger:    logger.With("component", "scheduler"),
	}

	for _, sched := range cfg.Schedules {
		if !sched.Enabled {
			continue
		}
		if err := ValidateSchedule(&sched); err != nil {
			return nil, err
		}
		next, err := CalculateNextDue(&sched, now)
		if err != nil {
			return nil, err
		}
		s.entries = append(s.entries, &entry{schedule: sched, nextDue: next})
	}

	return s, nil
}

// Tick ставит jobs для расписаний с nextDue <= now.
//
// Пропущенные запуски не догоняются: после тика nextDue считается от now.
// Ошибки одного расписания не блокируют остальные.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created int
	for _, e := range s.entries {
		if e.nextDue.After(now) {
			continue
		}

		if err := s.enqueue(ctx, &e.schedule, now); err != nil {
			s.logger.Error("failed to enqueue scheduled job",
				"schedule_name", e.schedule.Name,
				"error", err,
			)
		} else {
			created++
		}

		// невалидные расписания отсеяны в New
		next, _ := CalculateNextDue(&e.schedule, now)
		e.nextDue = next
	}

	if created > 0 {
		s.logger.Info("scheduler tick completed", "jobs_created", created)
	}
	return created
}

func (s *Scheduler) enqueue(ctx context.Context, sched *domain.Schedule, now time.Time) error {
	job := domain.NewJob(append([]string(nil), sched.Items...), sched.Source())
	job.CreatedAt = now

	if err := s.jobs.Create(ctx, job); err != nil {
		return fmt.Errorf("create job: %w", err)
	}

	s.logger.Info("created job from schedule",
		"job_id", job.ID,
		"schedule_name", sched.Name,
		"items", len(job.Items),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishJobRequested(ctx, job.ID); err != nil {
			// job уже в БД, воркер заберёт его polling'ом
			s.logger.Warn("failed to publish job.requested", "job_id", job.ID, "error", err)
		}
	}
	return nil
}

// NextDue возвращает время следующего запуска расписания.
func (s *Scheduler) NextDue(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.schedule.Name == name {
			return e.nextDue, true
		}
	}
	return time.Time{}, false
}

// Len возвращает количество активных расписаний.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run вызывает Tick с интервалом interval до отмены ctx.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}
