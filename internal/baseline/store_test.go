package baseline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/site-scout/internal/model"
)

func flatDist(v float64) model.FeatureDistribution {
	return model.FeatureDistribution{
		Min: 0, P10: v, P20: v, P30: v, P40: v, P50: v,
		P60: v, P70: v, P80: v, P90: v, Max: v * 2, Mean: v,
	}
}

func fullRecords(cityID string) []model.BaselineRecord {
	records := make([]model.BaselineRecord, 0, len(model.AllFeatures))
	for i, feat := range model.AllFeatures {
		records = append(records, model.BaselineRecord{
			CityID:              cityID,
			Feature:             feat,
			FeatureDistribution: flatDist(float64(i + 1)),
		})
	}
	return records
}

func TestNewStoreGroupsByCity(t *testing.T) {
	records := append(fullRecords("paris"), fullRecords(model.DefaultCityID)...)

	s, err := NewStore(records)
	require.NoError(t, err)

	b := s.For("paris")
	require.NotNil(t, b)
	assert.Len(t, b, len(model.AllFeatures))
}

func TestNewStoreRejectsMalformedDistribution(t *testing.T) {
	records := []model.BaselineRecord{{
		CityID:  "paris",
		Feature: model.FeatBanks,
		FeatureDistribution: model.FeatureDistribution{
			Min: 10, P10: 5, Max: 20, // decreasing
		},
	}}

	_, err := NewStore(records)

	assert.Error(t, err)
}

func TestNewStoreRejectsAnonymousRecord(t *testing.T) {
	_, err := NewStore([]model.BaselineRecord{{Feature: model.FeatBanks}})
	assert.Error(t, err)
}

func TestForFallsBackToDefault(t *testing.T) {
	s, err := NewStore(fullRecords(model.DefaultCityID))
	require.NoError(t, err)

	b := s.For("atlantis")

	require.NotNil(t, b)
	assert.Len(t, b, len(model.AllFeatures))
}

func TestValidateRequiresDefault(t *testing.T) {
	s, err := NewStore(fullRecords("paris"))
	require.NoError(t, err)

	assert.Error(t, s.Validate([]string{"paris"}))
}

func TestValidateRequiresEveryCity(t *testing.T) {
	s, err := NewStore(append(fullRecords(model.DefaultCityID), fullRecords("paris")...))
	require.NoError(t, err)

	assert.NoError(t, s.Validate([]string{"paris"}))
	assert.Error(t, s.Validate([]string{"paris", "lille"}))
}

func TestValidateRequiresEveryFeature(t *testing.T) {
	records := append(fullRecords(model.DefaultCityID), fullRecords("paris")[:3]...)
	s, err := NewStore(records)
	require.NoError(t, err)

	err = s.Validate([]string{"paris"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "paris")
}

func TestWriteThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baselines.json")
	records := append(fullRecords(model.DefaultCityID), fullRecords("paris")...)

	require.NoError(t, WriteRecords(path, records))

	s, err := LoadStore(path)
	require.NoError(t, err)
	assert.NoError(t, s.Validate([]string{"paris"}))
	assert.Len(t, s.Records(), len(records))
}

func TestLoadStoreMissingFile(t *testing.T) {
	_, err := LoadStore(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
