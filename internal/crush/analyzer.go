package crush

import (
	"fmt"
	"math"
	"time"

	"IVCrush/internal/model"
	"IVCrush/internal/pricing"
	"IVCrush/internal/volatility"
)

// DaysPerYear converts days to expiry into a year fraction.
const DaysPerYear = 365.0

// Input is everything one analysis needs. Series must be sorted ascending by time.
// ImpliedVol and Index may be nil.
type Input struct {
	Symbol       string
	Stock        []model.OHLCV
	ImpliedVol   []model.VolPoint
	Index        []model.OHLCV
	EarningsDate time.Time
	DaysToExpiry int
	RiskFreeRate float64
}

// Analyzer prices an ATM straddle before and after an earnings announcement.
// It holds configuration only and is safe for concurrent use.
type Analyzer struct {
	Fallback volatility.Fallback
}

// NewAnalyzer creates an Analyzer with the given index fallback.
func NewAnalyzer(fb volatility.Fallback) *Analyzer {
	return &Analyzer{Fallback: fb}
}

// Analyze runs the IV crush analysis in a single pass over in.
func (a *Analyzer) Analyze(in Input) (*model.AnalysisResult, error) {
	if in.DaysToExpiry <= 0 {
		return nil, fmt.Errorf("%w: days to expiry must be positive, got %d", ErrInvalidParameter, in.DaysToExpiry)
	}
	if !finite(in.RiskFreeRate) {
		return nil, fmt.Errorf("%w: risk-free rate %v", ErrInvalidParameter, in.RiskFreeRate)
	}

	pre, post, err := SelectReferencePoints(in.Stock, in.EarningsDate)
	if err != nil {
		return nil, err
	}
	if !positive(pre.Spot) || !positive(post.Spot) {
		return nil, fmt.Errorf("%w: spot must be positive (pre %v, post %v)", ErrInvalidParameter, pre.Spot, post.Spot)
	}

	preIV, postIV, source, err := a.resolveVolatility(in, pre.Date, post.Date)
	if err != nil {
		return nil, err
	}
	if preIV == 0 {
		return nil, fmt.Errorf("%w: pre-earnings volatility is zero", ErrInvalidParameter)
	}
	if !positive(preIV) || !positive(postIV) {
		return nil, fmt.Errorf("%w: volatility must be positive (pre %v, post %v)", ErrInvalidParameter, preIV, postIV)
	}

	// The straddle is struck at the pre-earnings spot and held through the announcement.
	strike := pre.Spot
	t := float64(in.DaysToExpiry) / DaysPerYear

	preQuote := pricing.Straddle(pre.Spot, strike, t, in.RiskFreeRate, preIV)
	postQuote := pricing.Straddle(post.Spot, strike, t, in.RiskFreeRate, postIV)
	if !pricing.IsFinite(preQuote) {
		return nil, fmt.Errorf("%w: pre-earnings quote %+v", ErrNumericDegeneracy, preQuote)
	}
	if !pricing.IsFinite(postQuote) {
		return nil, fmt.Errorf("%w: post-earnings quote %+v", ErrNumericDegeneracy, postQuote)
	}

	return &model.AnalysisResult{
		Symbol:       in.Symbol,
		EarningsDate: in.EarningsDate,
		DaysToExpiry: in.DaysToExpiry,
		Pre:          pre,
		Post:         post,
		Strike:       strike,
		IVSource:     source,
		PreIV:        preIV,
		PostIV:       postIV,
		IVCrushPct:   (preIV - postIV) / preIV * 100,
		PreQuote:     preQuote,
		PostQuote:    postQuote,
	}, nil
}

// SelectReferencePoints picks the last bar at or before earnings (spot = close) and the first bar
// strictly after it (spot = mid of open and close).
func SelectReferencePoints(stock []model.OHLCV, earnings time.Time) (pre, post model.ReferencePoint, err error) {
	var preBar, postBar *model.OHLCV
	for i := range stock {
		b := &stock[i]
		if !b.Time.After(earnings) {
			if preBar == nil || b.Time.After(preBar.Time) {
				preBar = b
			}
		} else if postBar == nil || b.Time.Before(postBar.Time) {
			postBar = b
		}
	}
	if preBar == nil {
		return pre, post, fmt.Errorf("%w: no stock observation on or before %s", ErrInsufficientData, earnings.Format("2006-01-02"))
	}
	if postBar == nil {
		return pre, post, fmt.Errorf("%w: no stock observation after %s", ErrInsufficientData, earnings.Format("2006-01-02"))
	}
	pre = model.ReferencePoint{Date: preBar.Time, Spot: preBar.Close}
	post = model.ReferencePoint{Date: postBar.Time, Spot: (postBar.Open + postBar.Close) / 2}
	return pre, post, nil
}

func (a *Analyzer) resolveVolatility(in Input, preDate, postDate time.Time) (preIV, postIV float64, src model.IVSource, err error) {
	if len(in.ImpliedVol) > 0 {
		iv := volatility.Normalize(in.ImpliedVol)
		p, ok := lastAtOrBefore(iv, preDate)
		if !ok {
			return 0, 0, "", fmt.Errorf("%w: no implied volatility on or before %s", ErrInsufficientData, preDate.Format("2006-01-02"))
		}
		q, ok := firstAtOrAfter(iv, postDate)
		if !ok {
			return 0, 0, "", fmt.Errorf("%w: no implied volatility on or after %s", ErrInsufficientData, postDate.Format("2006-01-02"))
		}
		return p, q, model.IVSourceImplied, nil
	}

	if len(in.Index) > 0 {
		idx := model.VolPointsFromBars(in.Index)
		p, ok := lastAtOrBefore(idx, preDate)
		if !ok {
			return 0, 0, "", fmt.Errorf("%w: no index reading on or before %s", ErrInsufficientData, preDate.Format("2006-01-02"))
		}
		q, ok := firstAtOrAfter(idx, postDate)
		if !ok {
			return 0, 0, "", fmt.Errorf("%w: no index reading on or after %s", ErrInsufficientData, postDate.Format("2006-01-02"))
		}
		preIV, postIV = a.Fallback.FromIndex(p, q)
		return preIV, postIV, model.IVSourceIndex, nil
	}

	preIV, postIV = a.Fallback.FromDefault()
	return preIV, postIV, model.IVSourceDefault, nil
}

func lastAtOrBefore(pts []model.VolPoint, at time.Time) (float64, bool) {
	for i := len(pts) - 1; i >= 0; i-- {
		if !pts[i].Time.After(at) {
			return pts[i].Value, true
		}
	}
	return 0, false
}

func firstAtOrAfter(pts []model.VolPoint, at time.Time) (float64, bool) {
	for _, p := range pts {
		if !p.Time.Before(at) {
			return p.Value, true
		}
	}
	return 0, false
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func positive(v float64) bool { return finite(v) && v > 0 }
