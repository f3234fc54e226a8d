package model

import "time"

// IVSource records where the analysed volatilities came from.
type IVSource string

const (
	IVSourceImplied IVSource = "IMPLIED" // direct implied-volatility series
	IVSourceIndex   IVSource = "INDEX"   // estimated from the volatility index
	IVSourceDefault IVSource = "DEFAULT" // no index available, fixed index level
)

// ReferencePoint is the (date, spot) pair one pricing run is anchored on.
type ReferencePoint struct {
	Date time.Time
	Spot float64
}

// OptionQuote holds the priced ATM straddle legs and combined Greeks at one reference point.
type OptionQuote struct {
	Spot         float64
	Strike       float64
	TimeToExpiry float64 // years
	RiskFreeRate float64
	Volatility   float64
	Call         float64
	Put          float64
	Straddle     float64
	Delta        float64 // call delta + put delta
	Vega         float64 // 2 x single-leg vega, per vol point
}

// AnalysisResult is the output of one IV crush analysis.
type AnalysisResult struct {
	Symbol       string
	EarningsDate time.Time
	DaysToExpiry int
	Pre          ReferencePoint
	Post         ReferencePoint
	Strike       float64
	IVSource     IVSource
	PreIV        float64
	PostIV       float64
	IVCrushPct   float64
	PreQuote     OptionQuote
	PostQuote    OptionQuote
}

func (r *AnalysisResult) CallChange() float64     { return r.PostQuote.Call - r.PreQuote.Call }
func (r *AnalysisResult) PutChange() float64      { return r.PostQuote.Put - r.PreQuote.Put }
func (r *AnalysisResult) StraddleChange() float64 { return r.PostQuote.Straddle - r.PreQuote.Straddle }
func (r *AnalysisResult) DeltaChange() float64    { return r.PostQuote.Delta - r.PreQuote.Delta }
func (r *AnalysisResult) VegaChange() float64     { return r.PostQuote.Vega - r.PreQuote.Vega }

// LongStraddlePnL is the P&L of buying the straddle before earnings and selling it after.
func (r *AnalysisResult) LongStraddlePnL() float64 { return r.StraddleChange() }

// ShortStraddlePnL is the P&L of the opposite trade.
func (r *AnalysisResult) ShortStraddlePnL() float64 { return -r.StraddleChange() }

// SpotMovePct is the percentage move of the underlying between the reference points.
func (r *AnalysisResult) SpotMovePct() float64 {
	if r.Pre.Spot == 0 {
		return 0
	}
	return (r.Post.Spot - r.Pre.Spot) / r.Pre.Spot * 100
}
