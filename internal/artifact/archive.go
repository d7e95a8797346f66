package artifact

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PackageAsArchive пишет paths в w как zip. Имена записей — пути
// относительно корня хранилища.
func (s *Store) PackageAsArchive(w io.Writer, paths []string) error {
	if len(paths) == 0 {
		return ErrNoArtifacts
	}

	zw := zip.NewWriter(w)
	for _, path := range paths {
		if err := s.addToArchive(zw, path); err != nil {
			_ = zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

// ExportArchive упаковывает все export-файлы.
// Возвращает ErrNoArtifacts, если их нет.
func (s *Store) ExportArchive(w io.Writer) error {
	paths, err := s.ListExports()
	if err != nil {
		return err
	}
	return s.PackageAsArchive(w, paths)
}

func (s *Store) addToArchive(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	name := filepath.Base(path)
	if rel, err := filepath.Rel(s.root, path); err == nil && !strings.HasPrefix(rel, "..") {
		name = rel
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("archive header %s: %w", path, err)
	}
	header.Name = filepath.ToSlash(name)
	header.Method = zip.Deflate

	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("archive entry %s: %w", name, err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("archive copy %s: %w", name, err)
	}
	return nil
}
