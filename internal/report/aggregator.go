package report

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Harvest/internal/domain"
)

// ErrInvariantViolation — нарушен контракт Aggregator.
var ErrInvariantViolation = errors.New("invariant violation")

// Aggregator накапливает результаты одного job.
type Aggregator struct {
	mu            sync.Mutex
	jobID         uuid.UUID
	items         []string
	index         map[string]int
	results       []*domain.ItemResult
	startedAt     time.Time
	authenticated bool
	finalized     bool
	now           func() time.Time
}

// NewAggregator создаёт Aggregator для items в заданном порядке.
// Items должны быть уникальны; повторы отбрасываются.
func NewAggregator(jobID uuid.UUID, items []string, startedAt time.Time) *Aggregator {
	a := &Aggregator{
		jobID:     jobID,
		items:     make([]string, 0, len(items)),
		index:     make(map[string]int, len(items)),
		startedAt: startedAt,
		now:       time.Now,
	}
	for _, item := range items {
		if _, ok := a.index[item]; ok {
			continue
		}
		a.index[item] = len(a.items)
		a.items = append(a.items, item)
	}
	a.results = make([]*domain.ItemResult, len(a.items))
	return a
}

// SetAuthenticated фиксирует результат проверки аутентификации.
func (a *Aggregator) SetAuthenticated(ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authenticated = ok
}

// Record сохраняет терминальный результат item.
func (a *Aggregator) Record(result domain.ItemResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalized {
		return fmt.Errorf("%w: record %q after finalize", ErrInvariantViolation, result.Item)
	}

	i, ok := a.index[result.Item]
	if !ok {
		return fmt.Errorf("%w: unknown item %q", ErrInvariantViolation, result.Item)
	}
	if a.results[i] != nil {
		return fmt.Errorf("%w: item %q recorded twice", ErrInvariantViolation, result.Item)
	}
	if result.Status != domain.ItemStatusSucceeded && result.Status != domain.ItemStatusFailed {
		return fmt.Errorf("%w: item %q has non-terminal status %q", ErrInvariantViolation, result.Item, result.Status)
	}

	r := result
	a.results[i] = &r
	return nil
}

// Pending возвращает items без результата в порядке входа.
func (a *Aggregator) Pending() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	pending := make([]string, 0)
	for i, item := range a.items {
		if a.results[i] == nil {
			pending = append(pending, item)
		}
	}
	return pending
}

// Finalize строит JobReport. Все items должны иметь результат.
func (a *Aggregator) Finalize() (*domain.JobReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalized {
		return nil, fmt.Errorf("%w: finalize called twice", ErrInvariantViolation)
	}

	for i, item := range a.items {
		if a.results[i] == nil {
			return nil, fmt.Errorf("%w: item %q has no result", ErrInvariantViolation, item)
		}
	}
	a.finalized = true

	report := &domain.JobReport{
		JobID:         a.jobID,
		StartedAt:     a.startedAt,
		FinishedAt:    a.now(),
		Authenticated: a.authenticated,
		Results:       make([]domain.ItemResult, 0, len(a.items)),
		Successful:    make([]string, 0),
		Failed:        make([]string, 0),
		ErrorDetails:  make([]domain.ErrorDetail, 0),
	}

	for _, r := range a.results {
		report.Results = append(report.Results, *r)
		if r.IsSucceeded() {
			report.Successful = append(report.Successful, r.Item)
			continue
		}
		report.Failed = append(report.Failed, r.Item)
		report.ErrorDetails = append(report.ErrorDetails, domain.ErrorDetail{Item: r.Item, Error: r.Error})
	}

	return report, nil
}
