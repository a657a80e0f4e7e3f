package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore хранит тройку одним JSON-документом. Запись атомарная:
// временный файл в том же каталоге, fsync, rename поверх старого.
// Файл создаётся с правами 0600.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore создаёт хранилище по пути path. Каталог создаётся при первой записи.
func NewFileStore(path string) (*FileStore, error) {
	const op = "session.file.NewFileStore"

	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}

	return &FileStore{path: filepath.Clean(path)}, nil
}

// DefaultPath — ~/.config/campus-portal/<profile>.json (с учётом ОС).
func DefaultPath(profile string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session.file.DefaultPath: %w", err)
	}

	if profile == "" {
		profile = "default"
	}

	return filepath.Join(dir, "campus-portal", profile+".json"), nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

func (s *FileStore) Set(ctx context.Context, c Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(c.normalized())
}

func (s *FileStore) Update(ctx context.Context, fn func(c *Credentials) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.read()
	if err != nil {
		return err
	}

	if err := fn(&cur); err != nil {
		return err
	}

	return s.write(cur.normalized())
}

func (s *FileStore) Clear(ctx context.Context) error {
	const op = "session.file.Clear"

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *FileStore) read() (Credentials, error) {
	const op = "session.file.read"

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, nil
		}

		return Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return Credentials{}, fmt.Errorf("%s: corrupt session file: %w", op, err)
	}

	return c, nil
}

func (s *FileStore) write(c Credentials) error {
	const op = "session.file.write"

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%s: mkdir: %w", op, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("%s: create temp: %w", op, err)
	}
	tmpPath := tmp.Name()

	// При любой ошибке ниже временный файл не должен остаться.
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("%s: chmod: %w", op, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("%s: write: %w", op, err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%s: fsync: %w", op, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: close: %w", op, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%s: rename: %w", op, err)
	}

	return nil
}
