package application

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, 0, len(effects))
	for _, e := range effects {
		out = append(out, e.Kind)
	}
	return out
}

func TestBegin(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()
	prev := State{
		Phase:        PhaseSuccess,
		Current:      &entities.CurrentConditions{City: "Paris"},
		Forecast:     []entities.ForecastDay{{Date: "2024-01-01"}},
		Advisory:     entities.Advisory{Active: true, Message: "hot"},
		ErrorMessage: "stale",
		History:      []string{"Paris"},
	}

	next, effects := Begin(prev, id, entities.LookupByCity, "London", now)

	assert.Equal(t, PhaseLoading, next.Phase)
	assert.True(t, next.Loading)
	assert.Equal(t, id, next.LookupID)
	assert.Equal(t, "London", next.Query)
	assert.Nil(t, next.Current)
	assert.Nil(t, next.Forecast)
	assert.False(t, next.Advisory.Active)
	assert.Empty(t, next.ErrorMessage)
	assert.Equal(t, []string{"Paris"}, next.History)
	assert.Equal(t, now, next.UpdatedAt)
	assert.Equal(t, []EffectKind{EffectShowLoading, EffectClearError, EffectHideResults}, kinds(effects))

	assert.Equal(t, "Paris", prev.Current.City, "previous state must not be mutated")
}

func TestFail(t *testing.T) {
	now := time.Now()
	s := State{Phase: PhaseLoading, Loading: true, Current: &entities.CurrentConditions{}}

	next, effects := Fail(s, entities.NewStatusError("current conditions", 404, "city not found"), now)

	assert.Equal(t, PhaseError, next.Phase)
	assert.True(t, next.Loading, "loading is cleared by Finish")
	assert.Equal(t, "API returned status 404: city not found", next.ErrorMessage)
	assert.Nil(t, next.Current)
	require.Len(t, effects, 2)
	assert.Equal(t, EffectShowError, effects[0].Kind)
	assert.Equal(t, next.ErrorMessage, effects[0].Message)
	assert.Equal(t, EffectHideResults, effects[1].Kind)
}

func TestSucceed(t *testing.T) {
	now := time.Now()
	base := State{Phase: PhaseLoading, Loading: true, ErrorMessage: "old"}

	t.Run("city lookup with advisory and new history", func(t *testing.T) {
		out := Outcome{
			Current:        entities.CurrentConditions{City: "Phoenix", Temperature: 41},
			Forecast:       []entities.ForecastDay{{Date: "2024-07-01"}},
			Advisory:       entities.Advisory{Active: true, Message: "High temperature alert!"},
			History:        []string{"Phoenix"},
			HistoryChanged: true,
		}

		next, effects := Succeed(base, out, now)

		assert.Equal(t, PhaseSuccess, next.Phase)
		assert.Empty(t, next.ErrorMessage)
		require.NotNil(t, next.Current)
		assert.Equal(t, "Phoenix", next.Current.City)
		assert.Len(t, next.Forecast, 1)
		assert.True(t, next.Advisory.Active)
		assert.Equal(t, []string{"Phoenix"}, next.History)
		assert.Equal(t, []EffectKind{
			EffectClearError, EffectShowConditions, EffectShowAdvisory, EffectShowForecast, EffectUpdateHistory,
		}, kinds(effects))
	})

	t.Run("unchanged history emits no history effect", func(t *testing.T) {
		out := Outcome{
			Current:  entities.CurrentConditions{City: "Oslo"},
			Forecast: []entities.ForecastDay{},
			History:  []string{"Oslo"},
		}

		next, effects := Succeed(base, out, now)

		assert.Equal(t, []string{"Oslo"}, next.History)
		assert.Equal(t, []EffectKind{EffectClearError, EffectShowConditions, EffectShowForecast}, kinds(effects))
	})

	t.Run("coordinates lookup has no forecast", func(t *testing.T) {
		withHistory := base
		withHistory.History = []string{"Rome"}

		next, effects := Succeed(withHistory, Outcome{Current: entities.CurrentConditions{City: "Here"}}, now)

		assert.Nil(t, next.Forecast)
		assert.Equal(t, []string{"Rome"}, next.History)
		assert.Equal(t, []EffectKind{EffectClearError, EffectShowConditions}, kinds(effects))
	})
}

func TestFinish(t *testing.T) {
	now := time.Now()

	next, effects := Finish(State{Phase: PhaseSuccess, Loading: true}, now)
	assert.False(t, next.Loading)
	assert.Equal(t, PhaseSuccess, next.Phase)
	assert.Equal(t, []EffectKind{EffectHideLoading}, kinds(effects))

	next, effects = Finish(State{Phase: PhaseError}, now)
	assert.False(t, next.Loading)
	assert.Empty(t, effects)
}

func TestFail_UserMessageForUnknownErrors(t *testing.T) {
	next, _ := Fail(State{}, errors.New("dial tcp: connection refused"), time.Now())
	assert.Equal(t, "dial tcp: connection refused", next.ErrorMessage)
}
