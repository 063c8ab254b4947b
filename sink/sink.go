// Package sink provides output destinations for rendered client bindings.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Sink receives rendered files. Paths are slash-separated and relative to
// the output root; use ValidatePath to check them.
type Sink interface {
	// Recreate removes dir and everything under it, then creates it empty.
	// Renderers call it once per owned directory before writing.
	Recreate(ctx context.Context, dir string) error

	// WriteFile writes content to path, creating parent directories and
	// replacing any existing file.
	WriteFile(ctx context.Context, path string, content []byte) error
}

// Filesystem writes below a directory on the local filesystem.
type Filesystem struct {
	Root string

	// Mode is the file permission mode (default: 0644).
	Mode os.FileMode
}

// NewFilesystem returns a Filesystem sink rooted at root.
func NewFilesystem(root string) *Filesystem {
	return &Filesystem{Root: root, Mode: 0o644}
}

// resolve maps a relative output path to an absolute location under Root.
func (s *Filesystem) resolve(path string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", fmt.Errorf("resolve output root: %w", err)
	}
	full := filepath.Join(root, filepath.FromSlash(path))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes output root: %q", path)
	}
	return full, nil
}

// Recreate implements Sink.
func (s *Filesystem) Recreate(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(dir)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// WriteFile implements Sink. Writes go to a temp file in the target
// directory that is then renamed over the destination.
func (s *Filesystem) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	mode := s.Mode
	if mode == 0 {
		mode = 0o644
	}

	tmp, err := os.CreateTemp(dir, ".sharpgen-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		_ = os.Remove(tmpPath)
		return err
	}

	_, werr := tmp.Write(content)
	cerr := tmp.Close()
	if werr != nil {
		return fail(fmt.Errorf("write %s: %w", path, werr))
	}
	if cerr != nil {
		return fail(fmt.Errorf("close %s: %w", path, cerr))
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fail(fmt.Errorf("chmod %s: %w", path, err))
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpPath, full); err != nil {
		return fail(fmt.Errorf("rename %s: %w", path, err))
	}
	return nil
}

// Memory keeps rendered files in memory. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  []string
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Recreate implements Sink by dropping every file under dir.
func (s *Memory) Recreate(ctx context.Context, dir string) error {
	if err := ValidatePath(dir); err != nil {
		return fmt.Errorf("invalid path %q: %w", dir, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.files {
		if strings.HasPrefix(p, dir+"/") {
			delete(s.files, p)
		}
	}
	s.dirs = append(s.dirs, dir)
	return nil
}

// WriteFile implements Sink.
func (s *Memory) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), content...)
	return nil
}

// Get returns the content of a file, or nil if it was not written.
func (s *Memory) Get(path string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[path]
	if !ok {
		return nil
	}
	return append([]byte(nil), content...)
}

// Paths returns the written paths in sorted order.
func (s *Memory) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Recreated returns the directories passed to Recreate, in call order.
func (s *Memory) Recreated() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.dirs...)
}

// ValidatePath checks that path is relative, slash-separated, clean, and
// does not traverse upwards.
func ValidatePath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}
	if strings.HasPrefix(path, "/") || filepath.IsAbs(path) {
		return errors.New("absolute paths not allowed")
	}
	if len(path) >= 2 && path[1] == ':' && isLetter(path[0]) {
		return errors.New("absolute paths not allowed")
	}
	if strings.Contains(path, "\\") {
		return errors.New("backslash separators not allowed")
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return errors.New("path traversal not allowed")
		}
	}
	if cleaned := filepath.ToSlash(filepath.Clean(path)); cleaned != path {
		return fmt.Errorf("path is not clean (expected %q, got %q)", cleaned, path)
	}
	return nil
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
