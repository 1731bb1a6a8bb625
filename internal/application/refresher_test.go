package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRefresher_Start(t *testing.T) {
	ctx := context.Background()
	history := NewHistory(ctx, &testutils.MemoryHistoryStorage{}, logger.Nop())
	w := NewWorkflow(&testutils.MockProvider{}, nil, history, nil, nil, logger.Nop(), WorkflowOptions{})

	t.Run("schedules refresh", func(t *testing.T) {
		scheduler := &testutils.MockScheduler{}
		scheduler.On("Schedule", ctx, 15*time.Minute, mock.Anything).Return(nil)
		scheduler.On("Stop").Return()
		r := NewRefresher(w, scheduler, logger.Nop())

		require.NoError(t, r.Start(ctx, 15*time.Minute))
		r.Stop()

		scheduler.AssertExpectations(t)
	})

	t.Run("schedule error", func(t *testing.T) {
		scheduler := &testutils.MockScheduler{}
		scheduler.On("Schedule", ctx, time.Minute, mock.Anything).Return(errors.New("bad spec"))
		r := NewRefresher(w, scheduler, logger.Nop())

		err := r.Start(ctx, time.Minute)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to schedule refresh")
	})
}

func TestRefresher_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("empty history does nothing", func(t *testing.T) {
		provider := &testutils.MockProvider{}
		history := NewHistory(ctx, &testutils.MemoryHistoryStorage{}, logger.Nop())
		w := NewWorkflow(provider, nil, history, nil, nil, logger.Nop(), WorkflowOptions{})

		require.NoError(t, NewRefresher(w, &testutils.MockScheduler{}, logger.Nop()).Refresh(ctx))
		provider.AssertNotCalled(t, "CurrentByCity", mock.Anything, mock.Anything)
	})

	t.Run("looks up the most recent city", func(t *testing.T) {
		provider := &testutils.MockProvider{}
		provider.On("CurrentByCity", mock.Anything, "Berlin").Return(conditions("Berlin", 9), nil).Once()
		provider.On("ForecastByCity", mock.Anything, "Berlin").Return(noonEntries("2024-01-01"), nil).Once()
		storage := &testutils.MemoryHistoryStorage{Cities: []string{"Berlin", "Madrid"}}
		history := NewHistory(ctx, storage, logger.Nop())
		w := NewWorkflow(provider, nil, history, nil, nil, logger.Nop(), WorkflowOptions{})

		require.NoError(t, NewRefresher(w, &testutils.MockScheduler{}, logger.Nop()).Refresh(ctx))

		provider.AssertExpectations(t)
		assert.Equal(t, []string{"Berlin", "Madrid"}, storage.Cities)
		assert.Equal(t, PhaseSuccess, w.Snapshot().Phase)
	})

	t.Run("lookup failure is returned", func(t *testing.T) {
		provider := &testutils.MockProvider{}
		provider.On("CurrentByCity", mock.Anything, "Berlin").
			Return(nil, entities.NewStatusError("current conditions", 500, ""))
		history := NewHistory(ctx, &testutils.MemoryHistoryStorage{Cities: []string{"Berlin"}}, logger.Nop())
		w := NewWorkflow(provider, nil, history, nil, nil, logger.Nop(), WorkflowOptions{})

		err := NewRefresher(w, &testutils.MockScheduler{}, logger.Nop()).Refresh(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), `refresh "Berlin"`)
	})

	t.Run("busy workflow is skipped", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		provider := &stubProvider{
			current: func(context.Context, string) (*entities.CurrentConditions, error) {
				close(started)
				<-release
				return nil, errors.New("cancelled")
			},
		}
		history := NewHistory(ctx, &testutils.MemoryHistoryStorage{Cities: []string{"Berlin"}}, logger.Nop())
		w := NewWorkflow(provider, nil, history, nil, nil, logger.Nop(), WorkflowOptions{})

		done := w.Submit(ctx, "Berlin")
		<-started

		assert.NoError(t, NewRefresher(w, &testutils.MockScheduler{}, logger.Nop()).Refresh(ctx))

		close(release)
		<-done
	})
}
