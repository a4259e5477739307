package engine

import (
	"context"

	"github.com/sells-group/site-scout/internal/config"
	"github.com/sells-group/site-scout/internal/model"
)

// Source is the geospatial feature source boundary: given a coordinate
// and radius it returns all POIs inside that circle. The engine treats
// it as an opaque, possibly failing capability.
type Source interface {
	Query(ctx context.Context, coord model.Coordinate, radiusMeters float64) ([]model.POI, error)
}

// Extractor turns raw POI results into the fixed-shape raw feature
// vector. Identical inputs against an unchanged source always yield an
// identical vector: no randomness, no wall-clock input. The offline
// baseline builder uses this same extractor so that stored percentiles
// and live queries share one set of feature semantics.
type Extractor struct {
	source Source
	max    float64
	walk   config.WalkabilityWeights
}

// NewExtractor builds an Extractor around the given source.
func NewExtractor(source Source, cfg config.EngineConfig) *Extractor {
	return &Extractor{
		source: source,
		max:    cfg.MaxRadiusMeters,
		walk:   cfg.Walkability,
	}
}

// ValidateRadius rejects non-positive radii and radii above the
// configured maximum (query cost bound).
func (x *Extractor) ValidateRadius(radiusMeters float64) error {
	if radiusMeters <= 0 || radiusMeters > x.max {
		return &InvalidRadiusError{Radius: radiusMeters, Max: x.max}
	}
	return nil
}

// Extract queries the source and partitions the returned POIs into
// per-category counts plus the derived walkability score. Missing
// categories stay at 0; absence is a scoreable fact, not an error.
func (x *Extractor) Extract(ctx context.Context, coord model.Coordinate, radiusMeters float64) (model.RawFeatureVector, error) {
	if err := x.ValidateRadius(radiusMeters); err != nil {
		return nil, err
	}
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	pois, err := x.source.Query(ctx, coord, radiusMeters)
	if err != nil {
		return nil, &DataUnavailableError{Err: err}
	}

	vec := make(model.RawFeatureVector, len(model.AllFeatures))
	for _, name := range model.AllFeatures {
		vec[name] = 0
	}
	for _, p := range pois {
		x.accumulate(vec, p)
	}
	return vec, nil
}

// accumulate applies one POI's tags to the vector. A single element may
// count toward several features (a shop at a station, say).
func (x *Extractor) accumulate(vec model.RawFeatureVector, p model.POI) {
	vec[model.FeatTotalPOIs]++

	if shop := p.Tag("shop"); shop != "" {
		vec[model.FeatShopsTotal]++
		if shop == "shoes" {
			vec[model.FeatShopsShoes]++
		}
	}

	switch p.Tag("amenity") {
	case "restaurant", "fast_food":
		vec[model.FeatRestaurants]++
	case "bank":
		vec[model.FeatBanks]++
	case "pharmacy":
		vec[model.FeatPharmacy]++
	case "parking":
		vec[model.FeatParking]++
	}

	if p.Tag("railway") == "station" {
		vec[model.FeatMetroStation]++
		vec[model.FeatWalkability] += x.walk.TransitStop
	}

	switch p.Tag("highway") {
	case "bus_stop":
		vec[model.FeatBusStop]++
		vec[model.FeatWalkability] += x.walk.TransitStop
	case "pedestrian", "footway", "cycleway":
		vec[model.FeatWalkability] += x.walk.PedestrianWay
	case "crossing":
		vec[model.FeatWalkability] += x.walk.Crossing
	}

	switch p.Tag("tourism") {
	case "hotel":
		vec[model.FeatHotels]++
	case "attraction":
		vec[model.FeatAttractions]++
	case "museum":
		vec[model.FeatMuseums]++
	}

	if p.Tag("leisure") == "park" {
		vec[model.FeatParks]++
	}
	if p.Tag("office") != "" {
		vec[model.FeatBusinessCenters]++
	}
	if p.Tag("building") == "residential" || p.Tag("landuse") == "residential" {
		vec[model.FeatResidential]++
	}
}
