package ports

import "context"

// HistoryStorage persists the recency list as a whole. Load returns an empty
// slice and no error when nothing has been stored yet.
type HistoryStorage interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, cities []string) error
	HealthCheck(ctx context.Context) error
}
