package artifact

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestStore(t *testing.T, mirror Mirror) *Store {
	t.Helper()
	s, err := NewStore(Config{Root: t.TempDir(), Mirror: mirror})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestSave_Layout(t *testing.T) {
	s := newTestStore(t, nil)

	path, err := s.Save(context.Background(), KindSnapshot, "B0TEST", 2, "navigating.html", []byte("<html/>"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	rel, _ := filepath.Rel(s.Root(), path)
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 4 {
		t.Fatalf("unexpected layout: %s", rel)
	}
	if parts[0] != "snapshot" || parts[1] != "B0TEST" || parts[2] != "attempt-2" {
		t.Errorf("unexpected layout: %s", rel)
	}
	if !strings.HasSuffix(parts[3], "-navigating.html") {
		t.Errorf("unexpected file name: %s", parts[3])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "<html/>" {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestSave_UniquePaths(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	seen := make(map[string]bool)
	for attempt := 1; attempt <= 3; attempt++ {
		for i := 0; i < 2; i++ {
			// одинаковые item, попытка и label
			path, err := s.Save(ctx, KindSnapshot, "B0TEST", attempt, "step", []byte("x"))
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if seen[path] {
				t.Fatalf("path reused: %s", path)
			}
			seen[path] = true
		}
	}
}

func TestSave_ConcurrentUnique(t *testing.T) {
	s := newTestStore(t, nil)

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		paths = make(map[string]bool)
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path, err := s.Save(context.Background(), KindSnapshot, "item", 1, "step", []byte("x"))
			if err != nil {
				t.Errorf("save: %v", err)
				return
			}
			mu.Lock()
			paths[path] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(paths) != 20 {
		t.Errorf("expected 20 unique paths, got %d", len(paths))
	}
}

func TestSave_SharedRootNeverReusesPath(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	// два процесса (API и воркер) или перезапуск: счётчики начинаются заново
	first, err := NewStore(Config{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewStore(Config{Root: root})
	if err != nil {
		t.Fatal(err)
	}

	p1, err := first.Save(ctx, KindExport, "B0X", 1, "B0X_export.csv", []byte("job1"))
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	p2, err := second.Save(ctx, KindExport, "B0X", 1, "B0X_export.csv", []byte("job2"))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("both stores claimed %s", p1)
	}

	data, err := os.ReadFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "job1" {
		t.Errorf("first export overwritten: %q", data)
	}

	exports, err := first.ListExports()
	if err != nil {
		t.Fatal(err)
	}
	if len(exports) != 2 {
		t.Errorf("expected 2 exports without temp files, got %v", exports)
	}
}

func TestSave_Validation(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	if _, err := s.Save(ctx, Kind("other"), "item", 1, "x", nil); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("expected ErrInvalidKind, got %v", err)
	}
	if _, err := s.Save(ctx, KindExport, "item", 0, "x", nil); !errors.Is(err, ErrInvalidAttempt) {
		t.Errorf("expected ErrInvalidAttempt, got %v", err)
	}
}

func TestSave_SanitizesItem(t *testing.T) {
	s := newTestStore(t, nil)

	path, err := s.Save(context.Background(), KindSnapshot, "../../etc/passwd", 1, "x", []byte("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	rel, err := filepath.Rel(s.Root(), path)
	if err != nil || strings.HasPrefix(rel, "..") {
		t.Fatalf("path escaped root: %s", path)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"B0TEST", "B0TEST"},
		{" a b ", "a_b"},
		{"a/b\\c", "a_b_c"},
		{"..", "__"},
		{"", "_"},
		{"x.csv", "x.csv"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSaveFile_KeepsExtension(t *testing.T) {
	s := newTestStore(t, nil)

	src := filepath.Join(t.TempDir(), "B0TEST_export.csv")
	if err := os.WriteFile(src, []byte("a,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := s.SaveFile(context.Background(), KindExport, "B0TEST", 1, "B0TEST_export", src)
	if err != nil {
		t.Fatalf("save file: %v", err)
	}
	if filepath.Ext(path) != ".csv" {
		t.Errorf("expected .csv, got %s", path)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source should be kept: %v", err)
	}

	if _, err := s.SaveFile(context.Background(), KindExport, "B0TEST", 1, "x", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestListExports(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	paths, err := s.ListExports()
	if err != nil {
		t.Fatalf("list on empty store: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected no exports, got %v", paths)
	}

	if _, err := s.Save(ctx, KindSnapshot, "A", 1, "step", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, KindExport, "A", 1, "A_export.csv", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, KindExport, "B", 2, "B_export.csv", []byte("b")); err != nil {
		t.Fatal(err)
	}

	paths, err = s.ListExports()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 exports (snapshots excluded), got %v", paths)
	}
}

func TestPackageAsArchive(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := s.ExportArchive(&buf); !errors.Is(err, ErrNoArtifacts) {
		t.Fatalf("expected ErrNoArtifacts, got %v", err)
	}

	a, _ := s.Save(ctx, KindExport, "A", 1, "A_export.csv", []byte("alpha"))
	b, _ := s.Save(ctx, KindExport, "B", 1, "B_export.csv", []byte("beta"))

	buf.Reset()
	if err := s.PackageAsArchive(&buf, []string{a, b}); err != nil {
		t.Fatalf("package: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}

	contents := make(map[string]string)
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "export/") {
			t.Errorf("entry should be relative to root: %s", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		contents[filepath.Base(filepath.Dir(filepath.Dir(f.Name)))] = string(data)
	}
	if contents["A"] != "alpha" || contents["B"] != "beta" {
		t.Errorf("unexpected archive contents: %v", contents)
	}
}

type fakeMirror struct {
	mu      sync.Mutex
	objects []string
	err     error
}

func (m *fakeMirror) Upload(_ context.Context, _, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = append(m.objects, objectName)
	return m.err
}

func TestMirror_ExportsOnly(t *testing.T) {
	m := &fakeMirror{}
	s := newTestStore(t, m)
	ctx := context.Background()

	if _, err := s.Save(ctx, KindSnapshot, "A", 1, "step", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, KindExport, "A", 1, "A_export.csv", []byte("x")); err != nil {
		t.Fatal(err)
	}

	if len(m.objects) != 1 {
		t.Fatalf("expected 1 mirrored object, got %v", m.objects)
	}
	if !strings.HasPrefix(m.objects[0], "export/A/attempt-1/") {
		t.Errorf("unexpected object name: %s", m.objects[0])
	}
}

func TestMirror_FailureDoesNotFailSave(t *testing.T) {
	m := &fakeMirror{err: errors.New("unreachable")}
	s := newTestStore(t, m)

	path, err := s.Save(context.Background(), KindExport, "A", 1, "A_export.csv", []byte("x"))
	if err != nil {
		t.Fatalf("mirror failure should not fail save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("local export missing: %v", err)
	}
}
