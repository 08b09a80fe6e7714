// Package filesystem persists downloaded artifacts on the local disk.
// Writes are atomic: content is staged in a temp file next to the destination
// and renamed into place only after the copy has completed and been synced.
package filesystem

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

	"github.com/closureme/closureme"
	"github.com/google/uuid"
)

// Store provides file operations confined to one directory.
type Store struct {
	root *os.Root
	dir  string
}

// WriteResult describes a completed write.
type WriteResult struct {
	Path         string
	BytesWritten int64
}

// Entry is a regular file found by List.
type Entry struct {
	Name string
	Size int64
}

// Open creates dir if needed and returns a Store rooted at it.
// The root provides sandboxed file operations preventing path traversal.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("open store: %w: empty directory", closureme.ErrInvalidInput)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("open store: create directory: %w", err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &Store{root: root, dir: dir}, nil
}

// Dir returns the directory the store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the full path of name inside the store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Close releases the root handle.
func (s *Store) Close() error {
	return s.root.Close()
}

// Exists reports whether a file with the given name is present.
func (s *Store) Exists(name string) (bool, error) {
	_, err := s.root.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", name, err)
}

// Get opens a file for reading. Returns closureme.ErrNotFound if the file does not exist.
func (s *Store) Get(ctx context.Context, name string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, closureme.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to name using a temp file and rename.
// An existing file at name is replaced. On any failure the temp file is
// removed and the destination is left untouched.
func (s *Store) Write(ctx context.Context, name string, content io.Reader) (WriteResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return WriteResult{}, ctxErr
	}

	destDir := filepath.Dir(name)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o750); err != nil {
			return WriteResult{}, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	tmpFile := filepath.Join(destDir, tmpFileName())
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return WriteResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	written, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return WriteResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return WriteResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	if err := t.Close(); err != nil {
		return WriteResult{}, fmt.Errorf("could not close temp file: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, name); renameErr != nil {
		return WriteResult{}, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true

	return WriteResult{Path: s.Path(name), BytesWritten: written}, nil
}

// List returns the regular files directly inside the store whose names end
// with ext (case-insensitive), sorted by name. An empty ext matches every file.
// Temp files left by interrupted writes are never listed.
func (s *Store) List(ctx context.Context, ext string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var entries []Entry
	for _, entry := range dirEntries {
		if entry.IsDir() || isTmpFile(entry.Name()) {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		entries = append(entries, Entry{Name: entry.Name(), Size: info.Size()})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

const tmpPrefix = ".t"

func tmpFileName() string {
	return fmt.Sprintf("%s%s.tmp", tmpPrefix, uuid.New().String())
}

func isTmpFile(name string) bool {
	return strings.HasPrefix(name, tmpPrefix) && strings.HasSuffix(name, ".tmp")
}
