package engine

import (
	"math"

	"github.com/sells-group/site-scout/internal/model"
)

// Normalize rescales each raw feature into [0, 100] by percentile-rank
// interpolation against the baseline's stored breakpoints. Percentile
// rank, not min-max: skewed distributions (most cells have zero metro
// stations, a handful have many) would otherwise compress every typical
// location into a narrow low band.
//
// Features the baseline does not know are ignored; features the raw
// vector lacks normalize as zero. Never returns NaN or an out-of-range
// value.
func Normalize(raw model.RawFeatureVector, baseline model.CityBaseline) model.NormalizedFeatureVector {
	out := make(model.NormalizedFeatureVector, len(baseline))
	for name, dist := range baseline {
		out[name] = percentileRank(raw.Get(name), dist.Breakpoints())
	}
	return out
}

// percentileRank maps v onto [0, 100]: at or below the minimum is 0, at
// or above the maximum is 100, otherwise linear interpolation within
// the first breakpoint band containing v. Duplicate breakpoints (sparse
// counts often repeat a decile value) are skipped by the band search,
// so the denominator is always positive.
func percentileRank(v float64, bp [11]float64) float64 {
	if math.IsNaN(v) || v <= bp[0] {
		return 0
	}
	if v >= bp[10] {
		return 100
	}
	for i := 0; i < 10; i++ {
		if v < bp[i+1] {
			rank := float64(i)*10 + 10*(v-bp[i])/(bp[i+1]-bp[i])
			return clamp(rank, 0, 100)
		}
	}
	return 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
