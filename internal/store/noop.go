package store

import (
	"time"

	"IVCrush/internal/model"
)

// NoopCache is a no-op implementation used when SQLite is not configured.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (n *NoopCache) LoadSeries(_ model.SeriesKind, _ string, _, _ time.Time) ([]model.OHLCV, bool, error) {
	return nil, false, nil
}

func (n *NoopCache) SaveSeries(_ string, _ model.SeriesKind, _ string, _, _ time.Time, _ []model.OHLCV) error {
	return nil
}

func (n *NoopCache) Close() error { return nil }
