package model

import "github.com/rotisserie/eris"

// DefaultCityID keys the fallback baseline used for coordinates outside
// every cataloged city.
const DefaultCityID = "default"

// FeatureDistribution summarizes one feature's value distribution over a
// city grid, computed offline by the baseline builder.
type FeatureDistribution struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	P10  float64 `json:"p10"`
	P20  float64 `json:"p20"`
	P30  float64 `json:"p30"`
	P40  float64 `json:"p40"`
	P50  float64 `json:"p50"`
	P60  float64 `json:"p60"`
	P70  float64 `json:"p70"`
	P80  float64 `json:"p80"`
	P90  float64 `json:"p90"`
}

// Breakpoints returns the 11 distribution values in percentile order:
// min, p10 .. p90, max. Consecutive breakpoints span 10 percentile
// points each.
func (d FeatureDistribution) Breakpoints() [11]float64 {
	return [11]float64{d.Min, d.P10, d.P20, d.P30, d.P40, d.P50, d.P60, d.P70, d.P80, d.P90, d.Max}
}

// Validate checks that the breakpoints are non-decreasing and free of
// NaN. A malformed distribution is a configuration error; it must never
// reach the normalizer.
func (d FeatureDistribution) Validate() error {
	bp := d.Breakpoints()
	prev := bp[0]
	for i, v := range bp {
		if v != v { // NaN
			return eris.Errorf("distribution: breakpoint %d is NaN", i)
		}
		if v < prev {
			return eris.Errorf("distribution: breakpoints must be non-decreasing (index %d: %.4f < %.4f)", i, v, prev)
		}
		prev = v
	}
	return nil
}

// CityBaseline maps feature names to their distribution summaries for
// one city. Read-only after load.
type CityBaseline map[string]FeatureDistribution

// BaselineRecord is the on-disk form: one record per city per feature.
type BaselineRecord struct {
	CityID  string `json:"city_id"`
	Feature string `json:"feature"`
	FeatureDistribution
}
