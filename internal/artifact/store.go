package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
)

// Kind — тип артефакта.
type Kind string

const (
	// KindSnapshot — диагностический снимок шага.
	KindSnapshot Kind = "snapshot"

	// KindExport — выгруженный файл результата.
	KindExport Kind = "export"
)

// defaultExt возвращает расширение, если label его не содержит.
func (k Kind) defaultExt() string {
	switch k {
	case KindSnapshot:
		return ".html"
	default:
		return ".bin"
	}
}

// Valid проверяет, что тип известен.
func (k Kind) Valid() bool {
	return k == KindSnapshot || k == KindExport
}

// Mirror копирует файл во внешнее хранилище.
type Mirror interface {
	Upload(ctx context.Context, localPath, objectName string) error
}

// Config — конфигурация Store.
type Config struct {
	// Root — корневой каталог артефактов.
	Root string

	// Mirror — опциональная копия export-файлов.
	Mirror Mirror

	Logger *slog.Logger
}

// Store — файловое хранилище артефактов.
type Store struct {
	root   string
	mirror Mirror
	logger *slog.Logger
	seq    atomic.Uint64
}

// NewStore создаёт Store и корневой каталог.
func NewStore(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, fmt.Errorf("artifact root is required")
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact root %s: %w", cfg.Root, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root %s: %w", root, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		root:   root,
		mirror: cfg.Mirror,
		logger: logger,
	}, nil
}

// Root возвращает корневой каталог.
func (s *Store) Root() string {
	return s.root
}

// Save записывает data как артефакт и возвращает его путь.
func (s *Store) Save(ctx context.Context, kind Kind, item string, attempt int, label string, data []byte) (string, error) {
	dir, label, ext, err := s.prepare(kind, item, attempt, label, "")
	if err != nil {
		return "", err
	}

	path, err := s.writeUnique(dir, label, ext, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return "", err
	}

	s.mirrorExport(ctx, kind, path)
	return path, nil
}

// SaveFile копирует srcPath в хранилище. Расширение берётся из srcPath.
// Исходный файл не удаляется.
func (s *Store) SaveFile(ctx context.Context, kind Kind, item string, attempt int, label, srcPath string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer src.Close()

	dir, label, ext, err := s.prepare(kind, item, attempt, label, filepath.Ext(srcPath))
	if err != nil {
		return "", err
	}

	path, err := s.writeUnique(dir, label, ext, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
	if err != nil {
		return "", err
	}

	s.mirrorExport(ctx, kind, path)
	return path, nil
}

// ListExports возвращает пути всех export-файлов в лексикографическом порядке.
func (s *Store) ListExports() ([]string, error) {
	dir := filepath.Join(s.root, string(KindExport))

	paths := make([]string, 0)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.Type().IsRegular() && !strings.HasPrefix(d.Name(), tmpPrefix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("list exports: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// prepare проверяет аргументы и создаёт каталог попытки.
func (s *Store) prepare(kind Kind, item string, attempt int, label, ext string) (dir, base, suffix string, err error) {
	if !kind.Valid() {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if attempt < 1 {
		return "", "", "", fmt.Errorf("%w: %d", ErrInvalidAttempt, attempt)
	}

	if ext == "" {
		ext = filepath.Ext(label)
		label = strings.TrimSuffix(label, ext)
	}
	if ext == "" {
		ext = kind.defaultExt()
	}

	dir = filepath.Join(s.root, string(kind), Sanitize(item), fmt.Sprintf("attempt-%d", attempt))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", "", fmt.Errorf("create directory %s: %w", dir, err)
	}
	return dir, Sanitize(label), Sanitize(ext), nil
}

// maxNameTries ограничивает поиск свободного seq в одном каталоге.
const maxNameTries = 10000

// writeUnique пишет временный файл и публикует его под первым свободным
// именем <seq>-<label><ext>. Имя занимается через os.Link, который не
// перезаписывает существующий файл, поэтому несколько Store (и процессов)
// на одном root никогда не получают один путь.
func (s *Store) writeUnique(dir, label, ext string, write func(io.Writer) error) (string, error) {
	tmpPath, err := writeTemp(dir, write)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpPath)

	for range maxNameTries {
		seq := s.seq.Add(1)
		path := filepath.Join(dir, fmt.Sprintf("%06d-%s%s", seq, label, ext))

		err := os.Link(tmpPath, path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("publish %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("no free artifact name in %s", dir)
}

func (s *Store) mirrorExport(ctx context.Context, kind Kind, path string) {
	if s.mirror == nil || kind != KindExport {
		return
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	if err := s.mirror.Upload(ctx, path, filepath.ToSlash(rel)); err != nil {
		s.logger.Warn("export mirror failed", "path", path, "error", err)
		return
	}
	s.logger.Debug("export mirrored", "object", filepath.ToSlash(rel))
}

const tmpPrefix = ".harvest-tmp-"

// writeTemp пишет содержимое во временный файл каталога dir.
func writeTemp(dir string, write func(io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	fail := func(format string, err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf(format, dir, err)
	}

	if err := write(tmp); err != nil {
		return fail("write temp file in %s: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail("chmod temp file in %s: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file in %s: %w", dir, err)
	}
	return tmpPath, nil
}

// Sanitize приводит строку к безопасному имени файла.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if strings.Trim(out, ".") == "" {
		return strings.Repeat("_", max(len(out), 1))
	}
	return out
}
