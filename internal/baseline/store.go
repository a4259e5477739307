// Package baseline loads, validates, and serves the pre-computed
// per-city feature distributions used for score normalization, and
// houses the offline grid builder that produces them.
package baseline

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/site-scout/internal/model"
)

// Store serves immutable city baselines. Construct once at startup,
// share freely.
type Store struct {
	byCity map[string]model.CityBaseline
}

// LoadStore reads a JSON baseline file: an array of per-city,
// per-feature distribution records.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "baseline: read %s", path)
	}
	var records []model.BaselineRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "baseline: parse %s", path)
	}
	return NewStore(records)
}

// NewStore builds a Store from records, validating every distribution.
// A malformed distribution fails construction; it must never reach the
// normalizer.
func NewStore(records []model.BaselineRecord) (*Store, error) {
	byCity := make(map[string]model.CityBaseline)
	for _, r := range records {
		if r.CityID == "" || r.Feature == "" {
			return nil, eris.New("baseline: record missing city_id or feature")
		}
		if err := r.FeatureDistribution.Validate(); err != nil {
			return nil, eris.Wrapf(err, "baseline: %s/%s", r.CityID, r.Feature)
		}
		if byCity[r.CityID] == nil {
			byCity[r.CityID] = make(model.CityBaseline)
		}
		byCity[r.CityID][r.Feature] = r.FeatureDistribution
	}
	return &Store{byCity: byCity}, nil
}

// For returns the baseline for cityID, falling back to the default
// baseline for unknown cities. Never returns nil when a default
// baseline was loaded.
func (s *Store) For(cityID string) model.CityBaseline {
	if b, ok := s.byCity[cityID]; ok {
		return b
	}
	return s.byCity[model.DefaultCityID]
}

// Validate checks at startup that a default baseline exists and that
// every given city ID has its own baseline covering every feature the
// extractor produces. Failing loud here beats silently scoring every
// request against the fallback.
func (s *Store) Validate(cityIDs []string) error {
	if _, ok := s.byCity[model.DefaultCityID]; !ok {
		return eris.New("baseline: no default baseline loaded")
	}
	for _, id := range append([]string{model.DefaultCityID}, cityIDs...) {
		b, ok := s.byCity[id]
		if !ok {
			return eris.Errorf("baseline: city %s has no baseline", id)
		}
		for _, feat := range model.AllFeatures {
			if _, ok := b[feat]; !ok {
				return eris.Errorf("baseline: city %s missing feature %s", id, feat)
			}
		}
	}
	return nil
}

// Records flattens the store back to its on-disk record form, in
// deterministic feature order.
func (s *Store) Records() []model.BaselineRecord {
	var records []model.BaselineRecord
	cityIDs := make([]string, 0, len(s.byCity))
	for id := range s.byCity {
		cityIDs = append(cityIDs, id)
	}
	sort.Strings(cityIDs)
	for _, id := range cityIDs {
		for _, feat := range model.AllFeatures {
			if d, ok := s.byCity[id][feat]; ok {
				records = append(records, model.BaselineRecord{
					CityID:              id,
					Feature:             feat,
					FeatureDistribution: d,
				})
			}
		}
	}
	return records
}

// WriteRecords persists records as the JSON file LoadStore reads.
func WriteRecords(path string, records []model.BaselineRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "baseline: marshal records")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "baseline: write %s", path)
	}
	return nil
}
