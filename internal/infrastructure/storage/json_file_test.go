package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFileStorage_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file is empty", func(t *testing.T) {
		s := NewJSONFileStorage(filepath.Join(t.TempDir(), "history.json"), logger.Nop())

		cities, err := s.Load(ctx)

		require.NoError(t, err)
		assert.NotNil(t, cities)
		assert.Empty(t, cities)
	})

	t.Run("corrupt file is a persistence error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		s := NewJSONFileStorage(path, logger.Nop())

		cities, err := s.Load(ctx)

		assert.Nil(t, cities)
		var perr *entities.PersistenceError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "decode", perr.Op)
		assert.Equal(t, path, perr.Path)
		assert.Error(t, s.HealthCheck(ctx))
	})

	t.Run("directory instead of file", func(t *testing.T) {
		s := NewJSONFileStorage(t.TempDir(), logger.Nop())

		_, err := s.Load(ctx)

		var perr *entities.PersistenceError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "read", perr.Op)
	})
}

func TestJSONFileStorage_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip creates parent directories", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "history.json")
		s := NewJSONFileStorage(path, logger.Nop())

		require.NoError(t, s.Save(ctx, []string{"London", "Paris", "Tokyo"}))
		cities, err := s.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"London", "Paris", "Tokyo"}, cities)
		assert.NoError(t, s.HealthCheck(ctx))

		entries, err := os.ReadDir(filepath.Join(dir, "nested"))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temporary files must not be left behind")
	})

	t.Run("overwrites previous contents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		s := NewJSONFileStorage(path, logger.Nop())

		require.NoError(t, s.Save(ctx, []string{"A", "B", "C"}))
		require.NoError(t, s.Save(ctx, []string{"D"}))

		cities, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"D"}, cities)
	})

	t.Run("unwritable location", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
		s := NewJSONFileStorage(filepath.Join(blocker, "history.json"), logger.Nop())

		err := s.Save(ctx, []string{"London"})

		var perr *entities.PersistenceError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "write", perr.Op)
	})
}

func TestNewJSONFileStorage_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultHistoryFile, NewJSONFileStorage("", logger.Nop()).Path())
}
