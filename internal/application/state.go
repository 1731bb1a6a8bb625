package application

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// State is everything the display layer needs after the latest transition.
// Success and Error are resting phases: the next lookup starts from either.
type State struct {
	Phase        Phase                       `json:"phase"`
	LookupID     uuid.UUID                   `json:"lookup_id"`
	Kind         entities.LookupKind         `json:"kind,omitempty"`
	Query        string                      `json:"query,omitempty"`
	Loading      bool                        `json:"loading"`
	Current      *entities.CurrentConditions `json:"current,omitempty"`
	Forecast     []entities.ForecastDay      `json:"forecast,omitempty"`
	Advisory     entities.Advisory           `json:"advisory"`
	ErrorMessage string                      `json:"error,omitempty"`
	History      []string                    `json:"history"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func NewState(history []string) State {
	return State{Phase: PhaseIdle, History: slices.Clone(history)}
}

type EffectKind string

const (
	EffectShowLoading    EffectKind = "show_loading"
	EffectHideLoading    EffectKind = "hide_loading"
	EffectShowError      EffectKind = "show_error"
	EffectClearError     EffectKind = "clear_error"
	EffectHideResults    EffectKind = "hide_results"
	EffectShowConditions EffectKind = "show_conditions"
	EffectShowForecast   EffectKind = "show_forecast"
	EffectShowAdvisory   EffectKind = "show_advisory"
	EffectUpdateHistory  EffectKind = "update_history"
)

// Effect is one instruction for the display layer. Only the fields relevant
// to Kind are set.
type Effect struct {
	Kind       EffectKind                  `json:"kind"`
	Message    string                      `json:"message,omitempty"`
	Conditions *entities.CurrentConditions `json:"conditions,omitempty"`
	Forecast   []entities.ForecastDay      `json:"forecast,omitempty"`
	History    []string                    `json:"history,omitempty"`
}

// Outcome carries the data of a successful lookup into Succeed.
type Outcome struct {
	Current        entities.CurrentConditions
	Forecast       []entities.ForecastDay
	Advisory       entities.Advisory
	History        []string
	HistoryChanged bool
}

// Begin enters Loading for a new lookup and hides the previous result.
func Begin(s State, id uuid.UUID, kind entities.LookupKind, query string, now time.Time) (State, []Effect) {
	s.Phase = PhaseLoading
	s.LookupID = id
	s.Kind = kind
	s.Query = query
	s.Loading = true
	s.ErrorMessage = ""
	s.Current = nil
	s.Forecast = nil
	s.Advisory = entities.Advisory{}
	s.UpdatedAt = now

	return s, []Effect{
		{Kind: EffectShowLoading, Message: query},
		{Kind: EffectClearError},
		{Kind: EffectHideResults},
	}
}

// Fail moves to Error with the user-visible message of err and clears results.
// The loading flag is left to Finish.
func Fail(s State, err error, now time.Time) (State, []Effect) {
	s.Phase = PhaseError
	s.ErrorMessage = entities.UserMessage(err)
	s.Current = nil
	s.Forecast = nil
	s.Advisory = entities.Advisory{}
	s.UpdatedAt = now

	return s, []Effect{
		{Kind: EffectShowError, Message: s.ErrorMessage},
		{Kind: EffectHideResults},
	}
}

// Succeed populates the result. A nil forecast (coordinates lookups) emits no
// forecast effect.
func Succeed(s State, out Outcome, now time.Time) (State, []Effect) {
	current := out.Current

	s.Phase = PhaseSuccess
	s.ErrorMessage = ""
	s.Current = &current
	s.Forecast = slices.Clone(out.Forecast)
	s.Advisory = out.Advisory
	s.UpdatedAt = now

	effects := []Effect{
		{Kind: EffectClearError},
		{Kind: EffectShowConditions, Conditions: &current},
	}
	if out.Advisory.Active {
		effects = append(effects, Effect{Kind: EffectShowAdvisory, Message: out.Advisory.Message})
	}
	if out.Forecast != nil {
		effects = append(effects, Effect{Kind: EffectShowForecast, Forecast: slices.Clone(out.Forecast)})
	}
	if out.History != nil {
		s.History = slices.Clone(out.History)
		if out.HistoryChanged {
			effects = append(effects, Effect{Kind: EffectUpdateHistory, History: slices.Clone(out.History)})
		}
	}

	return s, effects
}

// Finish always clears the loading flag. It emits nothing when loading was
// never shown, as for rejected input.
func Finish(s State, now time.Time) (State, []Effect) {
	if !s.Loading {
		return s, nil
	}
	s.Loading = false
	s.UpdatedAt = now
	return s, []Effect{{Kind: EffectHideLoading}}
}
