package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores artifacts under a base directory on the local filesystem.
type Local struct {
	baseDir string
}

func NewLocal(baseDir string) *Local {
	return &Local{baseDir: baseDir}
}

func (l *Local) path(name string) string {
	return filepath.Join(l.baseDir, filepath.FromSlash(name))
}

func (l *Local) GetBytes(_ context.Context, name string) ([]byte, error) {
	b, err := os.ReadFile(l.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("get %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return b, nil
}

func (l *Local) PutBytes(_ context.Context, name string, b []byte) error {
	p := l.path(name)
	if dir := filepath.Dir(p); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("put %s: %w", name, err)
		}
	}
	if err := os.WriteFile(p, b, 0644); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(l.path(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", name, err)
}

func (l *Local) Rename(_ context.Context, oldName, newName string) error {
	dst := l.path(newName)
	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("rename %s: %w", oldName, err)
		}
	}
	if err := os.Rename(l.path(oldName), dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("rename %s: %w", oldName, ErrNotFound)
		}
		return fmt.Errorf("rename %s: %w", oldName, err)
	}
	return nil
}

func (l *Local) Description() string {
	return "local file system (" + l.baseDir + ")"
}
