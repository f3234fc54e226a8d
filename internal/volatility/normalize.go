package volatility

import "IVCrush/internal/model"

// PercentThreshold is the raw series maximum above which readings are taken as percentage points.
const PercentThreshold = 5.0

// Unit is the detected scale of a raw volatility series.
type Unit string

const (
	UnitDecimal Unit = "decimal" // 0.25 means 25%
	UnitPercent Unit = "percent" // 25 means 25%
)

// DetectUnit inspects the whole series: a maximum strictly above PercentThreshold means percent.
// An empty series is reported as decimal.
func DetectUnit(raw []model.VolPoint) Unit {
	if len(raw) == 0 {
		return UnitDecimal
	}
	max := raw[0].Value
	for _, p := range raw[1:] {
		if p.Value > max {
			max = p.Value
		}
	}
	if max > PercentThreshold {
		return UnitPercent
	}
	return UnitDecimal
}

// Normalize returns a decimal copy of raw. The unit decision is made once for the whole series.
// No annualization factor is applied: readings are used as the effective volatility for the
// option horizon as delivered.
func Normalize(raw []model.VolPoint) []model.VolPoint {
	if raw == nil {
		return nil
	}
	scale := 1.0
	if DetectUnit(raw) == UnitPercent {
		scale = 100
	}
	out := make([]model.VolPoint, len(raw))
	for i, p := range raw {
		out[i] = model.VolPoint{Time: p.Time, Value: p.Value / scale}
	}
	return out
}
