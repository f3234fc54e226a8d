package store

import (
	"time"

	"IVCrush/internal/model"
)

// Cache keeps previously fetched market data so repeated analyses of the same
// window do not hit the provider again. Analysis results are never stored.
type Cache interface {
	// LoadSeries returns the bars of a window fetched earlier. ok is false when the
	// exact window was never saved.
	LoadSeries(kind model.SeriesKind, symbol string, start, end time.Time) (bars []model.OHLCV, ok bool, err error)
	SaveSeries(runID string, kind model.SeriesKind, symbol string, start, end time.Time, bars []model.OHLCV) error
	Close() error
}
