package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// VolPoint is a single volatility reading.
type VolPoint struct {
	Time  time.Time
	Value float64
}

// SeriesKind tags which input series a set of observations belongs to.
type SeriesKind string

const (
	SeriesStock SeriesKind = "stock"
	SeriesIndex SeriesKind = "index"
	SeriesIV    SeriesKind = "iv"
)

// SeriesSet holds the raw market data for one analysis run.
// Index and ImpliedVol are nil when the provider could not supply them.
type SeriesSet struct {
	Symbol      string
	IndexSymbol string
	Stock       []OHLCV
	Index       []OHLCV
	ImpliedVol  []VolPoint
	Start       time.Time
	End         time.Time
	FetchedAt   time.Time
}

// VolPointsFromBars converts bars to volatility readings using the close.
func VolPointsFromBars(bars []OHLCV) []VolPoint {
	if bars == nil {
		return nil
	}
	pts := make([]VolPoint, len(bars))
	for i, b := range bars {
		pts[i] = VolPoint{Time: b.Time, Value: b.Close}
	}
	return pts
}

// BarsFromVolPoints is the inverse of VolPointsFromBars; every price field carries the value.
func BarsFromVolPoints(pts []VolPoint) []OHLCV {
	if pts == nil {
		return nil
	}
	bars := make([]OHLCV, len(pts))
	for i, p := range pts {
		bars[i] = OHLCV{Time: p.Time, Open: p.Value, High: p.Value, Low: p.Value, Close: p.Value}
	}
	return bars
}
