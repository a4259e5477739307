package model

// Feature names form the fixed vocabulary shared by the live extractor,
// the offline baseline builder, and the stored baselines. Adding a name
// here without regenerating baselines is safe: the normalizer skips
// features the baseline does not know.
const (
	FeatShopsTotal      = "shops_total"
	FeatShopsShoes      = "shops_shoes"
	FeatRestaurants     = "restaurants" // includes fast food
	FeatBanks           = "banks"
	FeatPharmacy        = "pharmacy"
	FeatMetroStation    = "metro_station"
	FeatBusStop         = "bus_stop"
	FeatParking         = "parking"
	FeatHotels          = "hotels"
	FeatAttractions     = "attractions"
	FeatMuseums         = "museums"
	FeatParks           = "parks"
	FeatBusinessCenters = "business_centers"
	FeatResidential     = "residential_buildings"
	FeatWalkability     = "walkability_score"
	FeatTotalPOIs       = "total_pois"
)

// AllFeatures is the canonical ordered feature list. Order matters for
// stable CSV output and deterministic iteration.
var AllFeatures = []string{
	FeatShopsTotal,
	FeatShopsShoes,
	FeatRestaurants,
	FeatBanks,
	FeatPharmacy,
	FeatMetroStation,
	FeatBusStop,
	FeatParking,
	FeatHotels,
	FeatAttractions,
	FeatMuseums,
	FeatParks,
	FeatBusinessCenters,
	FeatResidential,
	FeatWalkability,
	FeatTotalPOIs,
}

// RawFeatureVector maps feature names to non-negative raw values
// (counts, or the derived walkability score). Missing names mean zero.
type RawFeatureVector map[string]float64

// Get returns the raw value for name, defaulting to 0 when absent.
func (v RawFeatureVector) Get(name string) float64 {
	return v[name]
}

// Clone returns a copy so callers can hold the vector past the request
// that produced it.
func (v RawFeatureVector) Clone() RawFeatureVector {
	out := make(RawFeatureVector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// NormalizedFeatureVector maps feature names to percentile-rank values
// in [0, 100] relative to a city baseline.
type NormalizedFeatureVector map[string]float64

// Get returns the normalized value for name, defaulting to 0 when the
// feature was absent from the baseline.
func (v NormalizedFeatureVector) Get(name string) float64 {
	return v[name]
}
