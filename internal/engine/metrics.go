package engine

import (
	"fmt"
	"math"

	"github.com/sells-group/site-scout/internal/config"
	"github.com/sells-group/site-scout/internal/model"
)

const weightSumTolerance = 0.001

// ValidateWeights checks that every metric's weight set sums to 1.0
// within tolerance. Called once at startup; a failing set means the
// config was hand-edited badly and the process must not serve.
func ValidateWeights(w config.MetricWeights) error {
	checks := []struct {
		metric string
		sum    float64
	}{
		{"attractiveness", w.Attractiveness.Restaurants + w.Attractiveness.Parks +
			w.Attractiveness.Hotels + w.Attractiveness.Attractions + w.Attractiveness.Museums +
			w.Attractiveness.Banks + w.Attractiveness.Pharmacy + w.Attractiveness.BusinessCenters},
		{"competition", w.Competition.ShoeShops + w.Competition.ShopsTotal},
		{"accessibility", w.Accessibility.MetroStations + w.Accessibility.Walkability +
			w.Accessibility.BusStops + w.Accessibility.Parking},
		{"suitability", w.Suitability.LowCompetition + w.Suitability.Accessibility +
			w.Suitability.ShopsTotal + w.Suitability.Restaurants +
			w.Suitability.Residential + w.Suitability.BusinessCenters},
	}
	for _, c := range checks {
		if math.Abs(c.sum-1.0) > weightSumTolerance {
			return &ConfigurationError{
				Reason: fmt.Sprintf("%s weights sum to %.4f, want 1.0", c.metric, c.sum),
			}
		}
	}
	return nil
}

// Aggregate collapses a normalized feature vector into the four metric
// scores plus the global score. Every output lands in [0, 100] and is
// rounded to two decimals. The global score is the plain mean of the
// four rounded metrics.
func Aggregate(n model.NormalizedFeatureVector, w config.MetricWeights) model.MetricSet {
	attractiveness := round2(attractivenessScore(n, w.Attractiveness))
	competition := round2(competitionScore(n, w.Competition))
	accessibility := round2(accessibilityScore(n, w.Accessibility))
	suitability := round2(suitabilityScore(n, competition, accessibility, w.Suitability))

	global := round2((attractiveness + competition + accessibility + suitability) / 4)

	return model.MetricSet{
		Attractiveness: attractiveness,
		Competition:    competition,
		Accessibility:  accessibility,
		Suitability:    suitability,
		GlobalScore:    global,
	}
}

func attractivenessScore(n model.NormalizedFeatureVector, w config.AttractivenessWeights) float64 {
	return clamp(
		w.Restaurants*n.Get(model.FeatRestaurants)+
			w.Parks*n.Get(model.FeatParks)+
			w.Hotels*n.Get(model.FeatHotels)+
			w.Attractions*n.Get(model.FeatAttractions)+
			w.Museums*n.Get(model.FeatMuseums)+
			w.Banks*n.Get(model.FeatBanks)+
			w.Pharmacy*n.Get(model.FeatPharmacy)+
			w.BusinessCenters*n.Get(model.FeatBusinessCenters),
		0, 100)
}

// competitionScore is a density measure, not a desirability measure:
// high means crowded. Same-segment shops dominate the weighting.
func competitionScore(n model.NormalizedFeatureVector, w config.CompetitionWeights) float64 {
	return clamp(
		w.ShoeShops*n.Get(model.FeatShopsShoes)+
			w.ShopsTotal*n.Get(model.FeatShopsTotal),
		0, 100)
}

func accessibilityScore(n model.NormalizedFeatureVector, w config.AccessibilityWeights) float64 {
	return clamp(
		w.MetroStations*n.Get(model.FeatMetroStation)+
			w.Walkability*n.Get(model.FeatWalkability)+
			w.BusStops*n.Get(model.FeatBusStop)+
			w.Parking*n.Get(model.FeatParking),
		0, 100)
}

// suitabilityScore blends the already-computed competition and
// accessibility metrics with retail-relevant features. Competition
// enters inverted: an empty market scores high here.
func suitabilityScore(n model.NormalizedFeatureVector, competition, accessibility float64, w config.SuitabilityWeights) float64 {
	return clamp(
		w.LowCompetition*(100-competition)+
			w.Accessibility*accessibility+
			w.ShopsTotal*n.Get(model.FeatShopsTotal)+
			w.Restaurants*n.Get(model.FeatRestaurants)+
			w.Residential*n.Get(model.FeatResidential)+
			w.BusinessCenters*n.Get(model.FeatBusinessCenters),
		0, 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
