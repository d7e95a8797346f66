package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Harvest/internal/domain"
)

type memJobs struct {
	jobs []*domain.Job
	err  error
}

func (m *memJobs) Create(_ context.Context, job *domain.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

type recordingPublisher struct {
	ids []uuid.UUID
}

func (p *recordingPublisher) PublishJobRequested(_ context.Context, id uuid.UUID) error {
	p.ids = append(p.ids, id)
	return nil
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestCalculateNextDue_Timezone(t *testing.T) {
	from := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	utc := &domain.Schedule{CronExpr: "0 6 * * *"}
	next, err := CalculateNextDue(utc, from)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("UTC: expected %v, got %v", want, next)
	}

	tokyo := &domain.Schedule{CronExpr: "0 6 * * *", Timezone: "Asia/Tokyo"}
	next, err = CalculateNextDue(tokyo, from)
	if err != nil {
		t.Fatal(err)
	}
	// 06:00 JST = 21:00 UTC
	if want := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("Tokyo: expected %v, got %v", want, next)
	}
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		name    string
		sched   domain.Schedule
		wantErr bool
	}{
		{"valid", domain.Schedule{Name: "a", CronExpr: "*/15 * * * *", Items: []string{"X"}, Enabled: true}, false},
		{"seconds field", domain.Schedule{Name: "b", CronExpr: "0 0 6 * * *", Items: []string{"X"}}, true},
		{"bad timezone", domain.Schedule{Name: "c", CronExpr: "0 6 * * *", Timezone: "Mars/Base"}, true},
		{"enabled without items", domain.Schedule{Name: "d", CronExpr: "0 6 * * *", Enabled: true}, true},
		{"duplicate items", domain.Schedule{Name: "e", CronExpr: "0 6 * * *", Items: []string{"X", " X"}, Enabled: true}, true},
		{"blank item", domain.Schedule{Name: "f", CronExpr: "0 6 * * *", Items: []string{"X", ""}, Enabled: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchedule(&tt.sched)
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTick_EnqueuesDueSchedules(t *testing.T) {
	start := time.Date(2026, 3, 10, 5, 59, 0, 0, time.UTC)
	jobs := &memJobs{}
	pub := &recordingPublisher{}

	s, err := New(Config{
		Schedules: []domain.Schedule{
			{Name: "morning", CronExpr: "0 6 * * *", Items: []string{"A", "B"}, Enabled: true},
			{Name: "off", CronExpr: "* * * * *", Items: []string{"C"}},
		},
		Jobs:      jobs,
		Publisher: pub,
		Logger:    quiet,
		Now:       start,
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("disabled schedule should be skipped, got %d entries", s.Len())
	}

	if n := s.Tick(context.Background(), start.Add(30*time.Second)); n != 0 {
		t.Errorf("not due yet, got %d jobs", n)
	}

	due := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	if n := s.Tick(context.Background(), due); n != 1 {
		t.Fatalf("expected 1 job, got %d", n)
	}

	job := jobs.jobs[0]
	if job.Source != "schedule:morning" || len(job.Items) != 2 || job.Status != domain.JobStatusPending {
		t.Errorf("unexpected job: %+v", job)
	}
	if len(pub.ids) != 1 || pub.ids[0] != job.ID {
		t.Errorf("job.requested not published: %v", pub.ids)
	}

	next, _ := s.NextDue("morning")
	if want := due.Add(24 * time.Hour); !next.Equal(want) {
		t.Errorf("expected next due %v, got %v", want, next)
	}

	// повторный тик в ту же минуту ничего не ставит
	if n := s.Tick(context.Background(), due.Add(10*time.Second)); n != 0 {
		t.Errorf("expected no duplicate job, got %d", n)
	}
}

func TestTick_CreateErrorAdvancesSchedule(t *testing.T) {
	start := time.Date(2026, 3, 10, 5, 59, 0, 0, time.UTC)
	jobs := &memJobs{err: errors.New("db down")}

	s, err := New(Config{
		Schedules: []domain.Schedule{{Name: "m", CronExpr: "0 6 * * *", Items: []string{"A"}, Enabled: true}},
		Jobs:      jobs,
		Logger:    quiet,
		Now:       start,
	})
	if err != nil {
		t.Fatal(err)
	}

	due := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	if n := s.Tick(context.Background(), due); n != 0 {
		t.Errorf("expected 0 created, got %d", n)
	}
	if next, _ := s.NextDue("m"); !next.After(due) {
		t.Errorf("next due should advance, got %v", next)
	}
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New(Config{
		Schedules: []domain.Schedule{{Name: "bad", CronExpr: "nope", Items: []string{"A"}, Enabled: true}},
		Jobs:      &memJobs{},
		Logger:    quiet,
	})
	if err == nil {
		t.Error("expected error for invalid cron")
	}
}
