package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

const MaxHistoryEntries = 5

// History is the bounded most-recent-first list of searched cities.
type History struct {
	mu      sync.RWMutex
	storage ports.HistoryStorage
	entries []string
	logger  logger.Logger
}

// NewHistory loads the persisted list. A broken store is logged and treated
// as empty so that lookups keep working.
func NewHistory(ctx context.Context, storage ports.HistoryStorage, log logger.Logger) *History {
	h := &History{
		storage: storage,
		entries: []string{},
		logger:  log.WithField("component", "history"),
	}

	if _, err := h.Load(ctx); err != nil {
		h.logger.Warnf("Search history unavailable, starting empty: %v", err)
	}

	return h
}

// Load replaces the in-memory list with the persisted one.
func (h *History) Load(ctx context.Context) ([]string, error) {
	stored, err := h.storage.Load(ctx)
	if err != nil {
		var perr *entities.PersistenceError
		if !errors.As(err, &perr) {
			err = &entities.PersistenceError{Op: "load", Err: err}
		}
		return nil, err
	}

	entries := sanitize(stored)
	if len(entries) != len(stored) {
		h.logger.Warnf("Ignored %d blank, duplicate or overflow history entries", len(stored)-len(entries))
	}

	h.mu.Lock()
	h.entries = entries
	h.mu.Unlock()

	h.logger.Debugf("Loaded %d history entries", len(entries))
	return slices.Clone(entries), nil
}

// Record puts city at the front of the list unless it is already present, in
// which case nothing changes. The whole list is persisted on every change.
// The in-memory list keeps the new entry even when persisting fails.
func (h *History) Record(ctx context.Context, city string) (bool, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return false, entities.ErrEmptyCity
	}

	h.mu.Lock()
	if slices.Contains(h.entries, city) {
		h.mu.Unlock()
		return false, nil
	}

	updated := make([]string, 0, MaxHistoryEntries)
	updated = append(updated, city)
	updated = append(updated, h.entries...)
	if len(updated) > MaxHistoryEntries {
		updated = updated[:MaxHistoryEntries]
	}
	h.entries = updated
	snapshot := slices.Clone(updated)
	h.mu.Unlock()

	if err := h.storage.Save(ctx, snapshot); err != nil {
		var perr *entities.PersistenceError
		if !errors.As(err, &perr) {
			err = &entities.PersistenceError{Op: "save", Err: err}
		}
		return true, fmt.Errorf("record %q: %w", city, err)
	}

	h.logger.Debugf("Recorded %q, history now %v", city, snapshot)
	return true, nil
}

// Current returns a copy of the list for display.
func (h *History) Current() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.entries)
}

func (h *History) HealthCheck(ctx context.Context) error {
	return h.storage.HealthCheck(ctx)
}

func sanitize(stored []string) []string {
	entries := make([]string, 0, MaxHistoryEntries)
	for _, city := range stored {
		city = strings.TrimSpace(city)
		if city == "" || slices.Contains(entries, city) {
			continue
		}
		entries = append(entries, city)
		if len(entries) == MaxHistoryEntries {
			break
		}
	}
	return entries
}
