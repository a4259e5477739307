package engine

import (
	"context"
	"time"

	"github.com/sells-group/site-scout/internal/config"
	"github.com/sells-group/site-scout/internal/model"
)

// mockSource is a call-counting Source stub.
type mockSource struct {
	pois  []model.POI
	err   error
	calls int
}

func (m *mockSource) Query(_ context.Context, _ model.Coordinate, _ float64) ([]model.POI, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.pois, nil
}

type stubResolver struct {
	city string
}

func (s stubResolver) Resolve(_ model.Coordinate) string {
	return s.city
}

type stubBaselines struct {
	byCity   map[string]model.CityBaseline
	fallback model.CityBaseline
}

func (s stubBaselines) For(cityID string) model.CityBaseline {
	if b, ok := s.byCity[cityID]; ok {
		return b
	}
	return s.fallback
}

func defaultWalkability() config.WalkabilityWeights {
	return config.WalkabilityWeights{PedestrianWay: 1.0, Crossing: 0.5, TransitStop: 0.5}
}

func defaultWeights() config.MetricWeights {
	return config.MetricWeights{
		Attractiveness: config.AttractivenessWeights{
			Restaurants: 0.40, Parks: 0.25, Hotels: 0.10, Attractions: 0.05,
			Museums: 0.05, Banks: 0.05, Pharmacy: 0.05, BusinessCenters: 0.05,
		},
		Competition: config.CompetitionWeights{ShoeShops: 0.70, ShopsTotal: 0.30},
		Accessibility: config.AccessibilityWeights{
			MetroStations: 0.40, Walkability: 0.30, BusStops: 0.20, Parking: 0.10,
		},
		Suitability: config.SuitabilityWeights{
			LowCompetition: 0.40, Accessibility: 0.20, ShopsTotal: 0.15,
			Restaurants: 0.15, Residential: 0.05, BusinessCenters: 0.05,
		},
	}
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		MaxRadiusMeters:     2000,
		DefaultRadiusMeters: 500,
		CacheTTL:            15 * time.Minute,
		CacheMaxEntries:     64,
		Walkability:         defaultWalkability(),
		Weights:             defaultWeights(),
	}
}

func dist(bp [11]float64) model.FeatureDistribution {
	return model.FeatureDistribution{
		Min: bp[0], P10: bp[1], P20: bp[2], P30: bp[3], P40: bp[4], P50: bp[5],
		P60: bp[6], P70: bp[7], P80: bp[8], P90: bp[9], Max: bp[10],
	}
}

// bordeauxBaseline reproduces the stored Bordeaux distribution summary
// used by the reference scoring fixture.
func bordeauxBaseline() model.CityBaseline {
	return model.CityBaseline{
		model.FeatShopsTotal:      dist([11]float64{0, 18, 54, 109, 176, 254, 341, 432, 523, 616, 716}),
		model.FeatShopsShoes:      dist([11]float64{0, 0, 1, 3, 7, 20, 34, 47, 61, 78, 102}),
		model.FeatRestaurants:     dist([11]float64{0, 11, 25, 47, 72, 104, 147, 198, 251, 305, 355}),
		model.FeatBanks:           dist([11]float64{0, 0, 0, 1, 1, 2, 3, 4, 6, 9, 18}),
		model.FeatPharmacy:        dist([11]float64{0, 0, 0, 1, 1, 2, 2, 3, 4, 6, 14}),
		model.FeatMetroStation:    dist([11]float64{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 6}),
		model.FeatBusStop:         dist([11]float64{0, 2, 4, 6.8, 11.8, 15, 19, 24, 30, 38, 61}),
		model.FeatParking:         dist([11]float64{0, 0, 1, 2, 3, 5, 7, 10, 14, 21, 64}),
		model.FeatHotels:          dist([11]float64{0, 0, 0, 0, 0, 1, 1, 2, 4, 8, 37}),
		model.FeatAttractions:     dist([11]float64{0, 0, 0, 0, 0, 0, 0, 1, 1, 3, 21}),
		model.FeatMuseums:         dist([11]float64{0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 11}),
		model.FeatParks:           dist([11]float64{0, 0, 0, 0, 0, 0, 0, 0, 0.1, 0.32, 4}),
		model.FeatBusinessCenters: dist([11]float64{0, 0, 0, 1, 2, 4, 6, 9, 14, 22, 73}),
		model.FeatResidential:     dist([11]float64{0, 2, 7, 15, 26, 41, 62, 88, 121, 167, 412}),
		model.FeatWalkability:     dist([11]float64{0, 42, 130, 236, 350, 400, 471, 545, 638, 779, 1024}),
		model.FeatTotalPOIs:       dist([11]float64{0, 31, 78, 142, 221, 318, 441, 589, 771, 1012, 1856}),
	}
}
