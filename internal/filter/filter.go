package filter

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultKeywords — список по умолчанию.
func DefaultKeywords() []string {
	return []string{"sunco", "chandelier", "home depot"}
}

// nonWord — символ вне слова: не буква, не цифра и не '_'.
const nonWord = `[^\p{L}\p{N}_]`

// Snapshot — скомпилированная версия списка. Не изменяется после создания.
type Snapshot struct {
	keywords  []string
	pattern   *regexp.Regexp // nil для пустого списка
	version   uint64
	updatedAt time.Time
}

// Compile строит Snapshot. Пустые слова отбрасываются, повторы
// (без учёта регистра) схлопываются.
func Compile(keywords []string) (*Snapshot, error) {
	return compile(keywords, 0)
}

func compile(keywords []string, version uint64) (*Snapshot, error) {
	seen := make(map[string]bool, len(keywords))
	clean := make([]string, 0, len(keywords))
	quoted := make([]string, 0, len(keywords))

	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" || seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		clean = append(clean, k)
		quoted = append(quoted, regexp.QuoteMeta(k))
	}

	s := &Snapshot{
		keywords:  clean,
		version:   version,
		updatedAt: time.Now(),
	}
	if len(quoted) == 0 {
		return s, nil
	}

	// \b в RE2 видит только ASCII-слова, поэтому границы заданы явно
	// через буквы и цифры Unicode.
	pattern, err := regexp.Compile(`(?i)(?:^|` + nonWord + `)(` + strings.Join(quoted, "|") + `)(?:$|` + nonWord + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile keywords: %w", err)
	}
	s.pattern = pattern
	return s, nil
}

// Match возвращает true, если text содержит одно из слов целиком.
func (s *Snapshot) Match(text string) bool {
	if s == nil || s.pattern == nil {
		return false
	}
	return s.pattern.MatchString(text)
}

// Find возвращает первое найденное слово или "".
func (s *Snapshot) Find(text string) string {
	if s == nil || s.pattern == nil {
		return ""
	}
	m := s.pattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// Keywords возвращает копию списка.
func (s *Snapshot) Keywords() []string {
	return append([]string(nil), s.keywords...)
}

// Version возвращает номер версии (растёт с каждым Update).
func (s *Snapshot) Version() uint64 {
	return s.version
}

// UpdatedAt возвращает время компиляции.
func (s *Snapshot) UpdatedAt() time.Time {
	return s.updatedAt
}

// Filter — текущий список с атомарной заменой.
type Filter struct {
	current atomic.Pointer[Snapshot]

	// mu упорядочивает писателей; читатели его не берут.
	mu sync.Mutex
}

// New создаёт Filter с начальным списком.
func New(initial []string) (*Filter, error) {
	s, err := compile(initial, 1)
	if err != nil {
		return nil, err
	}
	f := &Filter{}
	f.current.Store(s)
	return f, nil
}

// Snapshot возвращает текущую версию списка.
func (f *Filter) Snapshot() *Snapshot {
	return f.current.Load()
}

// Match проверяет text по текущей версии.
func (f *Filter) Match(text string) bool {
	return f.Snapshot().Match(text)
}

// Update заменяет список. При ошибке компиляции текущая версия остаётся.
func (f *Filter) Update(keywords []string) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := compile(keywords, f.current.Load().version+1)
	if err != nil {
		return nil, err
	}
	f.current.Store(s)
	return s, nil
}
