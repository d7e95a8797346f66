// Package fake содержит управляемую реализацию capability для тестов.
//
// Session ведёт счётчик попыток по item: попытка начинается с navigate,
// Value которого и есть item. Если navigate без Value, попытка
// засчитывается на ближайшем fill. Fail решает, завершить ли шаг ошибкой.
package fake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shaiso/Harvest/internal/capability"
)

// FailFunc возвращает ошибку для шага item на попытке attempt или nil.
type FailFunc func(item string, attempt int, step capability.Step) error

// FailUntil падает на шаге stepName для первых n попыток каждого item.
func FailUntil(n int, stepName string, err error) FailFunc {
	return func(_ string, attempt int, step capability.Step) error {
		if step.Name == stepName && attempt <= n {
			return err
		}
		return nil
	}
}

// Session — управляемая capability.Session.
type Session struct {
	// Authenticated — результат VerifyAuthenticated.
	Authenticated bool

	// AuthErr — ошибка VerifyAuthenticated.
	AuthErr error

	// Fail — ошибки шагов.
	Fail FailFunc

	// Content — содержимое загрузки для item (default: CSV с item).
	Content func(item string) []byte

	// SnapshotErr — ошибка CaptureSnapshot.
	SnapshotErr error

	// Dir — каталог загрузок.
	Dir string

	mu        sync.Mutex
	item      string
	counted   bool // текущая попытка уже учтена в attempts
	attempts  map[string]int
	steps     []string
	snapshots []string
	closes    int
	closed    bool
	downloads int
}

// ID возвращает идентификатор сессии.
func (s *Session) ID() string { return "fake" }

// VerifyAuthenticated возвращает Authenticated/AuthErr.
func (s *Session) VerifyAuthenticated(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, capability.ErrSessionLost
	}
	return s.Authenticated, s.AuthErr
}

// RunStep записывает шаг и применяет Fail.
func (s *Session) RunStep(_ context.Context, step capability.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(step)
}

// AwaitDownload записывает шаг и создаёт файл с Content.
func (s *Session) AwaitDownload(_ context.Context, trigger capability.Step) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.step(trigger); err != nil {
		return "", err
	}

	content := []byte("Keyword Phrase,Search Volume\n" + s.item + " lamp,100\n")
	if s.Content != nil {
		content = s.Content(s.item)
	}

	s.downloads++
	dir := s.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", capability.ErrDownload, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("fake-%03d-%s_export.csv", s.downloads, s.item))
	if content == nil {
		// файл так и не появился
		return path, nil
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", capability.ErrDownload, err)
	}
	return path, nil
}

// CaptureSnapshot возвращает label как содержимое снимка.
func (s *Session) CaptureSnapshot(_ context.Context, label string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SnapshotErr != nil {
		return nil, s.SnapshotErr
	}
	s.snapshots = append(s.snapshots, label)
	return []byte(label), nil
}

// Close считает вызовы.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	s.closed = true
	return nil
}

func (s *Session) step(step capability.Step) error {
	if s.closed {
		return capability.ErrSessionLost
	}
	if s.attempts == nil {
		s.attempts = make(map[string]int)
	}

	switch step.Action {
	case capability.ActionNavigate:
		s.counted = false
		if step.Value != "" {
			s.begin(step.Value)
		}
	case capability.ActionFill:
		if !s.counted {
			s.begin(step.Value)
		}
	}
	s.steps = append(s.steps, step.Name)

	if s.Fail == nil {
		return nil
	}
	return s.Fail(s.item, s.attempts[s.item], step)
}

func (s *Session) begin(item string) {
	s.item = item
	s.attempts[item]++
	s.counted = true
}

// reopen готовит Session к новому job.
func (s *Session) reopen(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
	if s.Dir == "" {
		s.Dir = dir
	}
}

// Steps возвращает имена выполненных шагов.
func (s *Session) Steps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.steps...)
}

// Attempts возвращает число начатых попыток item.
func (s *Session) Attempts(item string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[item]
}

// Closes возвращает число вызовов Close.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Driver — capability.Driver, выдающий одну и ту же Session.
type Driver struct {
	Session *Session
	OpenErr error

	mu     sync.Mutex
	opened int
	config capability.SessionConfig
}

// Open возвращает Session или OpenErr.
func (d *Driver) Open(_ context.Context, cfg capability.SessionConfig) (capability.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened++
	d.config = cfg
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.Session.reopen(cfg.DownloadDir)
	return d.Session, nil
}

// Opened возвращает число вызовов Open.
func (d *Driver) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Config возвращает конфигурацию последнего Open.
func (d *Driver) Config() capability.SessionConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}
