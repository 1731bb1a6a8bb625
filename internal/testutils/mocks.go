package testutils

import (
	"context"
	"time"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CurrentByCity(ctx context.Context, city string) (*entities.CurrentConditions, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CurrentConditions), args.Error(1)
}

func (m *MockProvider) CurrentByCoordinates(ctx context.Context, coords entities.Coordinates) (*entities.CurrentConditions, error) {
	args := m.Called(ctx, coords)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CurrentConditions), args.Error(1)
}

func (m *MockProvider) ForecastByCity(ctx context.Context, city string) ([]entities.ForecastEntry, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ForecastEntry), args.Error(1)
}

func (m *MockProvider) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockGeolocator struct {
	mock.Mock
}

func (m *MockGeolocator) Locate(ctx context.Context) (entities.Coordinates, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.Coordinates), args.Error(1)
}

type MockHistoryStorage struct {
	mock.Mock
}

func (m *MockHistoryStorage) Load(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockHistoryStorage) Save(ctx context.Context, cities []string) error {
	args := m.Called(ctx, cities)
	return args.Error(0)
}

func (m *MockHistoryStorage) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event entities.LookupEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, interval time.Duration, task ports.Task) error {
	args := m.Called(ctx, interval, task)
	return args.Error(0)
}

func (m *MockScheduler) Stop() {
	m.Called()
}

type MockReportGenerator struct {
	mock.Mock
}

func (m *MockReportGenerator) Generate(ctx context.Context, input ports.ReportInput) ([]byte, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MemoryHistoryStorage is a working in-memory HistoryStorage for workflow tests.
type MemoryHistoryStorage struct {
	Cities  []string
	Saves   int
	LoadErr error
	SaveErr error
}

func (s *MemoryHistoryStorage) Load(ctx context.Context) ([]string, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return append([]string{}, s.Cities...), nil
}

func (s *MemoryHistoryStorage) Save(ctx context.Context, cities []string) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Saves++
	s.Cities = append([]string{}, cities...)
	return nil
}

func (s *MemoryHistoryStorage) HealthCheck(ctx context.Context) error {
	return s.LoadErr
}
