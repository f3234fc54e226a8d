package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"IVCrush/internal/model"
)

// dateLayouts are tried in order when parsing CSV dates. The last two match IB's formatDate=1 output.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"20060102",
	"20060102 15:04:05",
}

// csvBar is one row of <SYMBOL>.csv.
type csvBar struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// csvVol is one row of <SYMBOL>_iv.csv. Files exported as bars carry the reading in close.
type csvVol struct {
	Date  string  `csv:"date"`
	Value float64 `csv:"value"`
	Close float64 `csv:"close"`
}

// CSVFetcher reads daily bars and implied volatility from files in Dir.
type CSVFetcher struct {
	Dir string
}

// NewCSVFetcher creates a fetcher over a directory of CSV exports.
func NewCSVFetcher(dir string) *CSVFetcher {
	return &CSVFetcher{Dir: dir}
}

func (f *CSVFetcher) Name() string { return "csv" }

func (f *CSVFetcher) path(symbol, suffix string) string {
	return filepath.Join(f.Dir, strings.ToUpper(symbol)+suffix+".csv")
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return sessionDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func (f *CSVFetcher) FetchDailyBars(symbol string, start, end time.Time) ([]model.OHLCV, error) {
	file, err := os.Open(f.path(symbol, ""))
	if err != nil {
		return nil, fmt.Errorf("open bars csv: %w", err)
	}
	defer file.Close()

	var rows []*csvBar
	if err := gocsv.Unmarshal(file, &rows); err != nil {
		return nil, fmt.Errorf("parse bars csv: %w", err)
	}

	bars := make([]model.OHLCV, 0, len(rows))
	for i, r := range rows {
		t, err := parseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("bars csv row %d: %w", i+1, err)
		}
		if !inWindow(t, start, end) {
			continue
		}
		bars = append(bars, model.OHLCV{Time: t, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume})
	}
	return cleanBars(bars), nil
}

// FetchImpliedVol returns raw readings as exported; unit normalization happens in the analyzer.
// A missing file means the provider has no IV for the symbol and yields a nil series.
func (f *CSVFetcher) FetchImpliedVol(symbol string, start, end time.Time) ([]model.VolPoint, error) {
	file, err := os.Open(f.path(symbol, "_iv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open iv csv: %w", err)
	}
	defer file.Close()

	var rows []*csvVol
	if err := gocsv.Unmarshal(file, &rows); err != nil {
		return nil, fmt.Errorf("parse iv csv: %w", err)
	}

	pts := make([]model.VolPoint, 0, len(rows))
	for i, r := range rows {
		t, err := parseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("iv csv row %d: %w", i+1, err)
		}
		if !inWindow(t, start, end) {
			continue
		}
		v := r.Value
		if v == 0 {
			v = r.Close
		}
		pts = append(pts, model.VolPoint{Time: t, Value: v})
	}
	return model.VolPointsFromBars(cleanBars(model.BarsFromVolPoints(pts))), nil
}
