package crush

import (
	"errors"
	"math"
	"testing"
	"time"

	"IVCrush/internal/model"
	"IVCrush/internal/volatility"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

// stockAround builds bars on Jan 27..31 with close=100 on the 29th and open=90/close=95 on the 30th.
func stockAround() []model.OHLCV {
	return []model.OHLCV{
		{Time: day(27), Open: 97, High: 99, Low: 96, Close: 98, Volume: 1e6},
		{Time: day(28), Open: 98, High: 100, Low: 97, Close: 99, Volume: 1e6},
		{Time: day(29), Open: 99, High: 101, Low: 98, Close: 100, Volume: 1e6},
		{Time: day(30), Open: 90, High: 96, Low: 88, Close: 95, Volume: 3e6},
		{Time: day(31), Open: 95, High: 97, Low: 94, Close: 96, Volume: 2e6},
	}
}

func ivAround() []model.VolPoint {
	return []model.VolPoint{
		{Time: day(27), Value: 0.50},
		{Time: day(28), Value: 0.55},
		{Time: day(29), Value: 0.60},
		{Time: day(30), Value: 0.35},
		{Time: day(31), Value: 0.33},
	}
}

func indexAround() []model.OHLCV {
	return []model.OHLCV{
		{Time: day(28), Close: 17},
		{Time: day(29), Close: 18},
		{Time: day(30), Close: 15},
		{Time: day(31), Close: 16},
	}
}

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestAnalyze_WorkedExample(t *testing.T) {
	a := NewAnalyzer(volatility.DefaultFallback())
	res, err := a.Analyze(Input{
		Symbol:       "ACME",
		Stock:        stockAround(),
		ImpliedVol:   ivAround(),
		Index:        indexAround(),
		EarningsDate: day(29).Add(16 * time.Hour),
		DaysToExpiry: 30,
		RiskFreeRate: 0.05,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Pre.Date.Equal(day(29)) || !res.Post.Date.Equal(day(30)) {
		t.Errorf("expected dates 29/30, got %s/%s", res.Pre.Date, res.Post.Date)
	}
	if res.Strike != 100 || res.Pre.Spot != 100 {
		t.Errorf("expected strike and pre spot 100, got %v/%v", res.Strike, res.Pre.Spot)
	}
	if res.Post.Spot != 92.5 {
		t.Errorf("expected post spot 92.5, got %v", res.Post.Spot)
	}
	if res.IVSource != model.IVSourceImplied {
		t.Errorf("expected implied source, got %s", res.IVSource)
	}
	if res.PreIV != 0.60 || res.PostIV != 0.35 {
		t.Errorf("expected IV 0.60/0.35, got %v/%v", res.PreIV, res.PostIV)
	}
	if !approx(res.IVCrushPct, 41.666666666666667, 1e-9) {
		t.Errorf("expected crush 41.67%%, got %v", res.IVCrushPct)
	}
	if !approx(res.PreQuote.Straddle, 13.683666590414724, 1e-9) {
		t.Errorf("pre straddle: expected 13.6837, got %.12f", res.PreQuote.Straddle)
	}
	if !approx(res.PostQuote.Straddle, 9.676158214329156, 1e-9) {
		t.Errorf("post straddle: expected 9.6762, got %.12f", res.PostQuote.Straddle)
	}
	if !approx(res.StraddleChange(), -4.007508376085568, 1e-9) {
		t.Errorf("straddle change: expected -4.0075, got %.12f", res.StraddleChange())
	}
	if res.LongStraddlePnL() >= 0 || res.ShortStraddlePnL() <= 0 {
		t.Errorf("expected long loss / short gain, got %v/%v", res.LongStraddlePnL(), res.ShortStraddlePnL())
	}
	if res.PostQuote.Strike != res.Strike || res.PreQuote.TimeToExpiry != 30.0/365 || res.PostQuote.TimeToExpiry != 30.0/365 {
		t.Errorf("strike and expiry must be shared by both quotes: %+v / %+v", res.PreQuote, res.PostQuote)
	}
}

func TestAnalyze_PercentIVSeriesNormalized(t *testing.T) {
	iv := ivAround()
	for i := range iv {
		iv[i].Value *= 100
	}
	res, err := NewAnalyzer(volatility.DefaultFallback()).Analyze(Input{
		Stock: stockAround(), ImpliedVol: iv, EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: 0.05,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(res.PreIV, 0.60, 1e-12) || !approx(res.PostIV, 0.35, 1e-12) {
		t.Errorf("expected normalized IV 0.60/0.35, got %v/%v", res.PreIV, res.PostIV)
	}
}

func TestAnalyze_IndexFallback(t *testing.T) {
	res, err := NewAnalyzer(volatility.DefaultFallback()).Analyze(Input{
		Stock: stockAround(), Index: indexAround(), EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: 0.05,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IVSource != model.IVSourceIndex {
		t.Errorf("expected index source, got %s", res.IVSource)
	}
	if !approx(res.PreIV, 0.27, 1e-12) || !approx(res.PostIV, 0.18, 1e-12) {
		t.Errorf("expected 0.27/0.18, got %v/%v", res.PreIV, res.PostIV)
	}
	want := (15 * 1.2) / (18 * 1.5)
	if !approx(res.PostIV/res.PreIV, want, 1e-12) {
		t.Errorf("expected ratio %v, got %v", want, res.PostIV/res.PreIV)
	}
}

func TestAnalyze_EmptyIVSeriesUsesIndex(t *testing.T) {
	res, err := NewAnalyzer(volatility.DefaultFallback()).Analyze(Input{
		Stock: stockAround(), ImpliedVol: []model.VolPoint{}, Index: indexAround(), EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: 0.05,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IVSource != model.IVSourceIndex {
		t.Errorf("expected index source, got %s", res.IVSource)
	}
}

func TestAnalyze_DefaultIndexLevel(t *testing.T) {
	res, err := NewAnalyzer(volatility.DefaultFallback()).Analyze(Input{
		Stock: stockAround(), EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: 0.05,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IVSource != model.IVSourceDefault {
		t.Errorf("expected default source, got %s", res.IVSource)
	}
	if !approx(res.PreIV, 0.30, 1e-12) || !approx(res.PostIV, 0.24, 1e-12) {
		t.Errorf("expected 0.30/0.24, got %v/%v", res.PreIV, res.PostIV)
	}
	if !approx(res.IVCrushPct, 20, 1e-9) {
		t.Errorf("expected crush 20%%, got %v", res.IVCrushPct)
	}
}

func TestAnalyze_ConfigurableFallback(t *testing.T) {
	fb := volatility.Fallback{PreMultiplier: 2, PostMultiplier: 1, DefaultIndexLevel: 10}
	res, err := NewAnalyzer(fb).Analyze(Input{
		Stock: stockAround(), EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: 0.05,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(res.PreIV, 0.2, 1e-12) || !approx(res.PostIV, 0.1, 1e-12) {
		t.Errorf("expected 0.2/0.1, got %v/%v", res.PreIV, res.PostIV)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	a := NewAnalyzer(volatility.DefaultFallback())
	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"no bars before", Input{Stock: stockAround(), EarningsDate: day(20), DaysToExpiry: 30, RiskFreeRate: 0.05}, ErrInsufficientData},
		{"no bars after", Input{Stock: stockAround(), EarningsDate: day(31), DaysToExpiry: 30, RiskFreeRate: 0.05}, ErrInsufficientData},
		{"empty stock", Input{EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: 0.05}, ErrInsufficientData},
		{"zero days", Input{Stock: stockAround(), EarningsDate: day(29), DaysToExpiry: 0, RiskFreeRate: 0.05}, ErrInvalidParameter},
		{"negative days", Input{Stock: stockAround(), EarningsDate: day(29), DaysToExpiry: -5, RiskFreeRate: 0.05}, ErrInvalidParameter},
		{"nan rate", Input{Stock: stockAround(), EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: math.NaN()}, ErrInvalidParameter},
		{"zero pre iv", Input{
			Stock:      stockAround(),
			ImpliedVol: []model.VolPoint{{Time: day(29), Value: 0}, {Time: day(30), Value: 0.3}},
			EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: 0.05,
		}, ErrInvalidParameter},
		{"zero post iv", Input{
			Stock:      stockAround(),
			ImpliedVol: []model.VolPoint{{Time: day(29), Value: 0.5}, {Time: day(30), Value: 0}},
			EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: 0.05,
		}, ErrInvalidParameter},
		{"iv missing after", Input{
			Stock:      stockAround(),
			ImpliedVol: []model.VolPoint{{Time: day(28), Value: 0.5}},
			EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: 0.05,
		}, ErrInsufficientData},
		{"index missing before", Input{
			Stock:        stockAround(),
			Index:        []model.OHLCV{{Time: day(31), Close: 15}},
			EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: 0.05,
		}, ErrInsufficientData},
		{"zero spot", Input{
			Stock:        []model.OHLCV{{Time: day(29), Close: 0}, {Time: day(30), Open: 1, Close: 1}},
			EarningsDate: day(29), DaysToExpiry: 30, RiskFreeRate: 0.05,
		}, ErrInvalidParameter},
	}
	for _, tt := range tests {
		res, err := a.Analyze(tt.in)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
		if res != nil {
			t.Errorf("%s: expected nil result on error", tt.name)
		}
	}
}

func TestSelectReferencePoints_Ordering(t *testing.T) {
	stock := stockAround()
	for h := 0; h < 24*4; h += 5 {
		earnings := day(27).Add(time.Duration(h) * time.Hour)
		pre, post, err := SelectReferencePoints(stock, earnings)
		if err != nil {
			t.Fatalf("earnings %s: unexpected error: %v", earnings, err)
		}
		if pre.Date.After(earnings) || !post.Date.After(earnings) {
			t.Errorf("earnings %s: ordering violated pre=%s post=%s", earnings, pre.Date, post.Date)
		}
		if post.Date.Sub(pre.Date) != 24*time.Hour {
			t.Errorf("earnings %s: expected adjacent bars, got pre=%s post=%s", earnings, pre.Date, post.Date)
		}
	}
}

func TestSelectReferencePoints_Gaps(t *testing.T) {
	// Weekend gap: earnings on Saturday picks Friday close and Monday mid.
	stock := []model.OHLCV{
		{Time: day(24), Open: 10, Close: 11},
		{Time: day(27), Open: 12, Close: 14},
	}
	pre, post, err := SelectReferencePoints(stock, day(25))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pre.Spot != 11 || post.Spot != 13 {
		t.Errorf("expected 11/13, got %v/%v", pre.Spot, post.Spot)
	}
}
