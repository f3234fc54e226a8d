package collector

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"IVCrush/internal/model"
	"IVCrush/internal/store"
	"IVCrush/internal/volatility"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars       map[string][]model.OHLCV
	ImpliedVol map[string][]model.VolPoint
	Err        map[string]error
	Calls      int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(symbol string, start, end time.Time) ([]model.OHLCV, error) {
	m.Calls++
	if err := m.Err[symbol]; err != nil {
		return nil, err
	}
	var out []model.OHLCV
	for _, b := range m.Bars[symbol] {
		if inWindow(b.Time, start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MockFetcher) FetchImpliedVol(symbol string, start, end time.Time) ([]model.VolPoint, error) {
	m.Calls++
	pts, ok := m.ImpliedVol[symbol]
	if !ok {
		return nil, nil
	}
	var out []model.VolPoint
	for _, p := range pts {
		if inWindow(p.Time, start, end) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Collector fetches the three input series around an earnings date.
type Collector struct {
	Fetcher     Fetcher
	Cache       store.Cache
	IndexSymbol string
	WindowDays  int

	now func() time.Time
}

// NewCollector creates a new Collector. A nil cache disables caching.
func NewCollector(fetcher Fetcher, cache store.Cache, indexSymbol string, windowDays int) *Collector {
	if cache == nil {
		cache = store.NewNoopCache()
	}
	return &Collector{
		Fetcher:     fetcher,
		Cache:       cache,
		IndexSymbol: indexSymbol,
		WindowDays:  windowDays,
		now:         time.Now,
	}
}

// Collect fetches stock, volatility-index and implied-volatility series for the window
// earnings ± WindowDays. Only the stock series is required.
func (c *Collector) Collect(symbol string, earnings time.Time) (*model.SeriesSet, error) {
	runID := uuid.NewString()
	start := earnings.AddDate(0, 0, -c.WindowDays)
	end := earnings.AddDate(0, 0, c.WindowDays)

	set := &model.SeriesSet{
		Symbol:      symbol,
		IndexSymbol: c.IndexSymbol,
		Start:       start,
		End:         end,
	}

	stock, err := c.cached(runID, model.SeriesStock, symbol, start, end, func() ([]model.OHLCV, error) {
		return c.Fetcher.FetchDailyBars(symbol, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch stock bars: %w", err)
	}
	if len(stock) == 0 {
		return nil, fmt.Errorf("fetch stock bars: no data for %s between %s and %s",
			symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	set.Stock = stock
	log.Printf("[INFO] [%s] received %d stock bars for %s", runID[:8], len(stock), symbol)

	if c.IndexSymbol != "" {
		index, err := c.cached(runID, model.SeriesIndex, c.IndexSymbol, start, end, func() ([]model.OHLCV, error) {
			return c.Fetcher.FetchDailyBars(c.IndexSymbol, start, end)
		})
		if err != nil {
			log.Printf("[WARN] [%s] %s data not available: %v", runID[:8], c.IndexSymbol, err)
		} else if len(index) > 0 {
			set.Index = index
			log.Printf("[INFO] [%s] received %d %s bars", runID[:8], len(index), c.IndexSymbol)
		}
	}

	if ivf, ok := c.Fetcher.(ImpliedVolFetcher); ok {
		bars, err := c.cached(runID, model.SeriesIV, symbol, start, end, func() ([]model.OHLCV, error) {
			pts, err := ivf.FetchImpliedVol(symbol, start, end)
			return model.BarsFromVolPoints(pts), err
		})
		if err != nil {
			log.Printf("[WARN] [%s] implied volatility not available: %v", runID[:8], err)
		} else if len(bars) > 0 {
			set.ImpliedVol = model.VolPointsFromBars(bars)
			log.Printf("[INFO] [%s] received %d IV points for %s (%s units)",
				runID[:8], len(bars), symbol, volatility.DetectUnit(set.ImpliedVol))
		}
	}
	if set.ImpliedVol == nil {
		log.Printf("[INFO] [%s] no implied volatility for %s, %s", runID[:8], symbol, fallbackNote(set))
	}

	set.FetchedAt = c.now()
	return set, nil
}

// fallbackNote describes which volatility estimate the analysis will use without IV data.
func fallbackNote(set *model.SeriesSet) string {
	if len(set.Index) > 0 {
		return "will estimate from " + set.IndexSymbol
	}
	return "no index data either, will use the default index level"
}

// cached serves a window from the cache, or fetches and stores it once the window is complete.
func (c *Collector) cached(runID string, kind model.SeriesKind, symbol string, start, end time.Time, fetch func() ([]model.OHLCV, error)) ([]model.OHLCV, error) {
	bars, ok, err := c.Cache.LoadSeries(kind, symbol, start, end)
	if err != nil {
		log.Printf("[WARN] cache load %s %s: %v", kind, symbol, err)
	} else if ok {
		return bars, nil
	}

	bars, err = fetch()
	if err != nil {
		return nil, err
	}
	bars = cleanBars(bars)

	// A window that ends in the future can still gain bars; only complete windows are cached.
	if c.now().Sub(end) > 24*time.Hour {
		if err := c.Cache.SaveSeries(runID, kind, symbol, start, end, bars); err != nil {
			log.Printf("[WARN] cache save %s %s: %v", kind, symbol, err)
		}
	}
	return bars, nil
}

// cleanBars sorts bars chronologically and keeps the last bar for each duplicate timestamp.
func cleanBars(bars []model.OHLCV) []model.OHLCV {
	if len(bars) == 0 {
		return bars
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && out[len(out)-1].Time.Equal(b.Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
