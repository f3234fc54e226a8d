package collector

import (
	"time"

	"IVCrush/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyBars(symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}

// sessionDay dates a bar at UTC midnight of its session. Earnings dates are UTC midnight too,
// so a bar stamped at the session open must not sort after its own earnings day.
func sessionDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ImpliedVolFetcher is implemented by providers that carry historical implied volatility.
type ImpliedVolFetcher interface {
	FetchImpliedVol(symbol string, start, end time.Time) ([]model.VolPoint, error)
}
