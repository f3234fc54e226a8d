package volatility

// Fallback estimates implied volatility from a volatility index quoted in points (VIX ~ 20).
// The multipliers are empirical and come from configuration.
type Fallback struct {
	PreMultiplier     float64
	PostMultiplier    float64
	DefaultIndexLevel float64
}

// DefaultFallback returns the stock multipliers: 1.5x before earnings, 1.2x after, index level 20.
func DefaultFallback() Fallback {
	return Fallback{PreMultiplier: 1.5, PostMultiplier: 1.2, DefaultIndexLevel: 20}
}

// FromIndex converts pre/post index readings into decimal volatilities.
func (f Fallback) FromIndex(preIndex, postIndex float64) (preIV, postIV float64) {
	return preIndex / 100 * f.PreMultiplier, postIndex / 100 * f.PostMultiplier
}

// FromDefault applies FromIndex with the fixed index level on both sides.
func (f Fallback) FromDefault() (preIV, postIV float64) {
	return f.FromIndex(f.DefaultIndexLevel, f.DefaultIndexLevel)
}
