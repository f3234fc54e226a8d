package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"IVCrush/internal/model"
)

// Side selects the call or put leg.
type Side int

const (
	Call Side = iota
	Put
)

func (s Side) String() string {
	if s == Put {
		return "put"
	}
	return "call"
}

var norm = distuv.UnitNormal

// d1d2 returns the Black-Scholes d1 and d2 terms.
// Inputs are not validated: zero sigma or t yields Inf/NaN which callers must check.
func d1d2(spot, strike, t, r, sigma float64) (float64, float64) {
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT
}

// PriceCall returns the Black-Scholes price of a European call without dividends.
func PriceCall(spot, strike, t, r, sigma float64) float64 {
	d1, d2 := d1d2(spot, strike, t, r, sigma)
	return spot*norm.CDF(d1) - strike*math.Exp(-r*t)*norm.CDF(d2)
}

// PricePut returns the Black-Scholes price of a European put without dividends.
func PricePut(spot, strike, t, r, sigma float64) float64 {
	d1, d2 := d1d2(spot, strike, t, r, sigma)
	return strike*math.Exp(-r*t)*norm.CDF(-d2) - spot*norm.CDF(-d1)
}

// Delta returns the spot sensitivity of one leg: N(d1) for calls, -N(-d1) for puts.
func Delta(spot, strike, t, r, sigma float64, side Side) float64 {
	d1, _ := d1d2(spot, strike, t, r, sigma)
	if side == Put {
		return -norm.CDF(-d1)
	}
	return norm.CDF(d1)
}

// Vega returns the price change per 1 percentage point of volatility. Same for calls and puts.
func Vega(spot, strike, t, r, sigma float64) float64 {
	d1, _ := d1d2(spot, strike, t, r, sigma)
	return spot * norm.Prob(d1) * math.Sqrt(t) / 100
}

// Straddle prices a long call + long put at the same strike and expiry.
func Straddle(spot, strike, t, r, sigma float64) model.OptionQuote {
	call := PriceCall(spot, strike, t, r, sigma)
	put := PricePut(spot, strike, t, r, sigma)
	return model.OptionQuote{
		Spot:         spot,
		Strike:       strike,
		TimeToExpiry: t,
		RiskFreeRate: r,
		Volatility:   sigma,
		Call:         call,
		Put:          put,
		Straddle:     call + put,
		Delta:        Delta(spot, strike, t, r, sigma, Call) + Delta(spot, strike, t, r, sigma, Put),
		Vega:         2 * Vega(spot, strike, t, r, sigma),
	}
}

// IsFinite reports whether every priced field of q is a finite number.
func IsFinite(q model.OptionQuote) bool {
	for _, v := range []float64{q.Call, q.Put, q.Straddle, q.Delta, q.Vega} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
