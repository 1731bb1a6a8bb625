package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

const (
	// DefaultLookupTimeout bounds a whole lookup when no timeout is configured.
	DefaultLookupTimeout = 10 * time.Second
	currentLocationQuery = "current location"
)

// Presenter receives display effects in the order they were produced.
type Presenter interface {
	Render(effects []Effect)
}

// Result is what Submit delivers once its lookup has finished.
type Result struct {
	State State
	Err   error
}

// WorkflowOptions tunes a Workflow; zero values select the defaults.
type WorkflowOptions struct {
	Timeout                  time.Duration
	HighTemperatureThreshold float64
}

// Workflow runs city and coordinate lookups against the provider and keeps the
// resulting State. Only one lookup runs at a time; concurrent callers get
// ErrLookupInProgress.
type Workflow struct {
	provider  ports.WeatherProvider
	locator   ports.Geolocator
	history   *History
	presenter Presenter
	publisher ports.EventPublisher
	logger    logger.Logger
	timeout   time.Duration
	threshold float64
	now       func() time.Time

	inflight sync.Mutex

	mu    sync.RWMutex
	state State
}

func NewWorkflow(
	provider ports.WeatherProvider,
	locator ports.Geolocator,
	history *History,
	presenter Presenter,
	publisher ports.EventPublisher,
	log logger.Logger,
	opts WorkflowOptions,
) *Workflow {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultLookupTimeout
	}
	if opts.HighTemperatureThreshold == 0 {
		opts.HighTemperatureThreshold = DefaultHighTemperatureThreshold
	}

	return &Workflow{
		provider:  provider,
		locator:   locator,
		history:   history,
		presenter: presenter,
		publisher: publisher,
		logger:    log.WithField("component", "lookup_workflow"),
		timeout:   opts.Timeout,
		threshold: opts.HighTemperatureThreshold,
		now:       time.Now,
		state:     NewState(history.Current()),
	}
}

// LookupByCity validates the query, fetches current conditions and then the
// forecast, and records the city once both succeeded.
func (w *Workflow) LookupByCity(ctx context.Context, query string) (State, error) {
	if !w.inflight.TryLock() {
		return w.Snapshot(), entities.ErrLookupInProgress
	}
	defer w.inflight.Unlock()

	id := uuid.New()
	city := strings.TrimSpace(query)
	if city == "" {
		w.apply(func(s State) (State, []Effect) { return Fail(s, entities.ErrEmptyCity, w.now()) })
		return w.Snapshot(), entities.ErrEmptyCity
	}

	err := w.run(ctx, id, entities.LookupByCity, city, func(ctx context.Context) (Outcome, error) {
		return w.fetchCity(ctx, city)
	})
	return w.Snapshot(), err
}

// LookupByCoordinates fetches current conditions only and leaves history alone.
func (w *Workflow) LookupByCoordinates(ctx context.Context, coords entities.Coordinates) (State, error) {
	if !w.inflight.TryLock() {
		return w.Snapshot(), entities.ErrLookupInProgress
	}
	defer w.inflight.Unlock()

	id := uuid.New()
	if err := coords.Validate(); err != nil {
		w.apply(func(s State) (State, []Effect) { return Fail(s, err, w.now()) })
		return w.Snapshot(), err
	}

	err := w.run(ctx, id, entities.LookupByCoordinates, coords.String(), func(ctx context.Context) (Outcome, error) {
		return w.fetchCoordinates(ctx, coords)
	})
	return w.Snapshot(), err
}

// LookupCurrentLocation resolves the caller's position by IP and continues as
// a coordinates lookup.
func (w *Workflow) LookupCurrentLocation(ctx context.Context) (State, error) {
	if !w.inflight.TryLock() {
		return w.Snapshot(), entities.ErrLookupInProgress
	}
	defer w.inflight.Unlock()

	id := uuid.New()
	err := w.run(ctx, id, entities.LookupByLocation, currentLocationQuery, func(ctx context.Context) (Outcome, error) {
		if w.locator == nil {
			return Outcome{}, &entities.LocationError{Err: errors.New("no geolocation provider configured")}
		}
		coords, err := w.locator.Locate(ctx)
		if err != nil {
			var lerr *entities.LocationError
			if !errors.As(err, &lerr) {
				err = &entities.LocationError{Err: err}
			}
			return Outcome{}, err
		}
		w.logger.Debugf("Resolved current location to %s", coords)
		return w.fetchCoordinates(ctx, coords)
	})
	return w.Snapshot(), err
}

// Submit runs LookupByCity on its own goroutine so a render loop never waits
// on the network.
func (w *Workflow) Submit(ctx context.Context, query string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		state, err := w.LookupByCity(ctx, query)
		out <- Result{State: state, Err: err}
	}()
	return out
}

func (w *Workflow) Snapshot() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.state
	s.History = append([]string(nil), w.state.History...)
	if s.History == nil {
		s.History = []string{}
	}
	return s
}

func (w *Workflow) History() []string {
	return w.history.Current()
}

// run drives Begin → fetch → Succeed|Fail → Finish. Finish runs on every exit
// path, including a panic inside fetch.
func (w *Workflow) run(
	ctx context.Context,
	id uuid.UUID,
	kind entities.LookupKind,
	query string,
	fetch func(ctx context.Context) (Outcome, error),
) (err error) {
	log := w.logger.WithFields(map[string]interface{}{
		"lookup_id": id.String(),
		"kind":      string(kind),
		"query":     query,
	})
	started := w.now()

	w.apply(func(s State) (State, []Effect) { return Begin(s, id, kind, query, started) })

	var out Outcome
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lookup aborted: %v", r)
			log.Errorf("Recovered from panic: %v", r)
			w.apply(func(s State) (State, []Effect) { return Fail(s, err, w.now()) })
		}
		w.apply(func(s State) (State, []Effect) { return Finish(s, w.now()) })
		w.publish(id, kind, query, out, err)
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	out, err = fetch(fetchCtx)
	if err != nil {
		log.Warnf("Lookup failed: %v", err)
		w.apply(func(s State) (State, []Effect) { return Fail(s, err, w.now()) })
		return err
	}

	w.apply(func(s State) (State, []Effect) { return Succeed(s, out, w.now()) })
	log.Infof("Lookup succeeded for %s in %v", out.Current.DisplayName(), w.now().Sub(started))
	return nil
}

func (w *Workflow) fetchCity(ctx context.Context, city string) (Outcome, error) {
	current, err := w.provider.CurrentByCity(ctx, city)
	if err != nil {
		return Outcome{}, err
	}

	entries, err := w.provider.ForecastByCity(ctx, city)
	if err != nil {
		return Outcome{}, err
	}

	changed, err := w.history.Record(ctx, city)
	if err != nil {
		w.logger.Warnf("Failed to persist search history: %v", err)
	}

	return Outcome{
		Current:        *current,
		Forecast:       SelectDailyForecast(entries),
		Advisory:       EvaluateAdvisory(current.Temperature, w.threshold),
		History:        w.history.Current(),
		HistoryChanged: changed,
	}, nil
}

func (w *Workflow) fetchCoordinates(ctx context.Context, coords entities.Coordinates) (Outcome, error) {
	current, err := w.provider.CurrentByCoordinates(ctx, coords)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Current:  *current,
		Advisory: EvaluateAdvisory(current.Temperature, w.threshold),
	}, nil
}

func (w *Workflow) apply(transition func(State) (State, []Effect)) {
	w.mu.Lock()
	next, effects := transition(w.state)
	w.state = next
	w.mu.Unlock()

	if w.presenter != nil && len(effects) > 0 {
		w.presenter.Render(effects)
	}
}

func (w *Workflow) publish(id uuid.UUID, kind entities.LookupKind, query string, out Outcome, err error) {
	if w.publisher == nil {
		return
	}

	event := entities.LookupEvent{
		ID:         id,
		Kind:       kind,
		Query:      query,
		Success:    err == nil,
		OccurredAt: w.now().UTC(),
	}
	if err != nil {
		event.Error = entities.UserMessage(err)
	} else {
		event.City = out.Current.City
		event.Country = out.Current.Country
		event.Temperature = out.Current.Temperature
		event.Advisory = out.Advisory.Active
		event.ForecastDays = len(out.Forecast)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if perr := w.publisher.Publish(ctx, event); perr != nil {
		w.logger.Warnf("Failed to publish lookup event %s: %v", id, perr)
	}
}
