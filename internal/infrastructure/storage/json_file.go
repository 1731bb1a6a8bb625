package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

const DefaultHistoryFile = "search_history.json"

// JSONFileStorage keeps the history as a JSON array in a single local file.
type JSONFileStorage struct {
	path   string
	logger logger.Logger
}

var _ ports.HistoryStorage = (*JSONFileStorage)(nil)

func NewJSONFileStorage(path string, log logger.Logger) *JSONFileStorage {
	if path == "" {
		path = DefaultHistoryFile
	}
	return &JSONFileStorage{
		path:   path,
		logger: log.WithField("component", "history_file"),
	}
}

func (s *JSONFileStorage) Path() string {
	return s.path
}

// Load returns an empty list when the file does not exist yet.
func (s *JSONFileStorage) Load(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debugf("History file %s does not exist yet", s.path)
		return []string{}, nil
	}
	if err != nil {
		return nil, &entities.PersistenceError{Op: "read", Path: s.path, Err: err}
	}

	cities, err := DecodeHistory(data)
	if err != nil {
		return nil, &entities.PersistenceError{Op: "decode", Path: s.path, Err: err}
	}
	return cities, nil
}

// Save replaces the file atomically: a reader sees either the old or the new list.
func (s *JSONFileStorage) Save(ctx context.Context, cities []string) error {
	data, err := EncodeHistory(cities)
	if err != nil {
		return &entities.PersistenceError{Op: "encode", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &entities.PersistenceError{Op: "write", Path: s.path, Err: err}
	}

	if err := writeFileAtomic(dir, s.path, data); err != nil {
		return &entities.PersistenceError{Op: "write", Path: s.path, Err: err}
	}

	s.logger.Debugf("Saved %d history entries to %s", len(cities), s.path)
	return nil
}

func (s *JSONFileStorage) HealthCheck(ctx context.Context) error {
	if _, err := s.Load(ctx); err != nil {
		return fmt.Errorf("history file health check failed: %w", err)
	}
	return nil
}

func writeFileAtomic(dir, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
