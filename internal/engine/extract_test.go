package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/site-scout/internal/model"
)

var testCoord = model.Coordinate{Lat: 44.8378, Lon: -0.5792}

func poi(tags map[string]string) model.POI {
	return model.POI{ID: 1, Lat: testCoord.Lat, Lon: testCoord.Lon, Tags: tags}
}

func TestValidateRadiusRejectsZero(t *testing.T) {
	x := NewExtractor(&mockSource{}, testEngineConfig())
	err := x.ValidateRadius(0)
	assert.True(t, IsInvalidRadius(err))
}

func TestValidateRadiusRejectsNegative(t *testing.T) {
	x := NewExtractor(&mockSource{}, testEngineConfig())
	err := x.ValidateRadius(-100)
	assert.True(t, IsInvalidRadius(err))
}

func TestValidateRadiusRejectsAboveMax(t *testing.T) {
	x := NewExtractor(&mockSource{}, testEngineConfig())
	err := x.ValidateRadius(2001)
	assert.True(t, IsInvalidRadius(err))
}

func TestValidateRadiusAcceptsBounds(t *testing.T) {
	x := NewExtractor(&mockSource{}, testEngineConfig())
	assert.NoError(t, x.ValidateRadius(1))
	assert.NoError(t, x.ValidateRadius(500))
	assert.NoError(t, x.ValidateRadius(2000))
}

func TestExtractInvalidRadiusSkipsSource(t *testing.T) {
	src := &mockSource{}
	x := NewExtractor(src, testEngineConfig())

	_, err := x.Extract(context.Background(), testCoord, -1)

	assert.True(t, IsInvalidRadius(err))
	assert.Equal(t, 0, src.calls)
}

func TestExtractInvalidCoordinateSkipsSource(t *testing.T) {
	src := &mockSource{}
	x := NewExtractor(src, testEngineConfig())

	_, err := x.Extract(context.Background(), model.Coordinate{Lat: 91, Lon: 0}, 500)

	assert.Error(t, err)
	assert.Equal(t, 0, src.calls)
}

func TestExtractWrapsSourceError(t *testing.T) {
	cause := errors.New("connection reset")
	x := NewExtractor(&mockSource{err: cause}, testEngineConfig())

	_, err := x.Extract(context.Background(), testCoord, 500)

	assert.True(t, IsDataUnavailable(err))
	assert.ErrorIs(t, err, cause)
}

func TestExtractEmptyAreaYieldsZeroVector(t *testing.T) {
	x := NewExtractor(&mockSource{}, testEngineConfig())

	vec, err := x.Extract(context.Background(), testCoord, 500)
	require.NoError(t, err)

	assert.Len(t, vec, len(model.AllFeatures))
	for _, name := range model.AllFeatures {
		assert.Zero(t, vec[name], name)
	}
}

func TestExtractCountsShops(t *testing.T) {
	src := &mockSource{pois: []model.POI{
		poi(map[string]string{"shop": "shoes"}),
		poi(map[string]string{"shop": "bakery"}),
		poi(map[string]string{"shop": "clothes"}),
	}}
	x := NewExtractor(src, testEngineConfig())

	vec, err := x.Extract(context.Background(), testCoord, 500)
	require.NoError(t, err)

	assert.Equal(t, 3.0, vec[model.FeatShopsTotal])
	assert.Equal(t, 1.0, vec[model.FeatShopsShoes])
	assert.Equal(t, 3.0, vec[model.FeatTotalPOIs])
}

func TestExtractFastFoodCountsAsRestaurant(t *testing.T) {
	src := &mockSource{pois: []model.POI{
		poi(map[string]string{"amenity": "restaurant"}),
		poi(map[string]string{"amenity": "fast_food"}),
	}}
	x := NewExtractor(src, testEngineConfig())

	vec, err := x.Extract(context.Background(), testCoord, 500)
	require.NoError(t, err)

	assert.Equal(t, 2.0, vec[model.FeatRestaurants])
}

func TestExtractPartitionsAmenities(t *testing.T) {
	src := &mockSource{pois: []model.POI{
		poi(map[string]string{"amenity": "bank"}),
		poi(map[string]string{"amenity": "pharmacy"}),
		poi(map[string]string{"amenity": "parking"}),
	}}
	x := NewExtractor(src, testEngineConfig())

	vec, err := x.Extract(context.Background(), testCoord, 500)
	require.NoError(t, err)

	assert.Equal(t, 1.0, vec[model.FeatBanks])
	assert.Equal(t, 1.0, vec[model.FeatPharmacy])
	assert.Equal(t, 1.0, vec[model.FeatParking])
}

func TestExtractPartitionsTourismAndLeisure(t *testing.T) {
	src := &mockSource{pois: []model.POI{
		poi(map[string]string{"tourism": "hotel"}),
		poi(map[string]string{"tourism": "attraction"}),
		poi(map[string]string{"tourism": "museum"}),
		poi(map[string]string{"leisure": "park"}),
		poi(map[string]string{"office": "company"}),
		poi(map[string]string{"building": "residential"}),
		poi(map[string]string{"landuse": "residential"}),
	}}
	x := NewExtractor(src, testEngineConfig())

	vec, err := x.Extract(context.Background(), testCoord, 500)
	require.NoError(t, err)

	assert.Equal(t, 1.0, vec[model.FeatHotels])
	assert.Equal(t, 1.0, vec[model.FeatAttractions])
	assert.Equal(t, 1.0, vec[model.FeatMuseums])
	assert.Equal(t, 1.0, vec[model.FeatParks])
	assert.Equal(t, 1.0, vec[model.FeatBusinessCenters])
	assert.Equal(t, 2.0, vec[model.FeatResidential])
	assert.Equal(t, 7.0, vec[model.FeatTotalPOIs])
}

func TestExtractWalkabilityWeighting(t *testing.T) {
	src := &mockSource{pois: []model.POI{
		poi(map[string]string{"highway": "footway"}),    // 1.0
		poi(map[string]string{"highway": "pedestrian"}), // 1.0
		poi(map[string]string{"highway": "cycleway"}),   // 1.0
		poi(map[string]string{"highway": "crossing"}),   // 0.5
		poi(map[string]string{"highway": "bus_stop"}),   // 0.5, counts as stop
		poi(map[string]string{"railway": "station"}),    // 0.5, counts as metro
	}}
	x := NewExtractor(src, testEngineConfig())

	vec, err := x.Extract(context.Background(), testCoord, 500)
	require.NoError(t, err)

	assert.InDelta(t, 4.5, vec[model.FeatWalkability], 1e-9)
	assert.Equal(t, 1.0, vec[model.FeatBusStop])
	assert.Equal(t, 1.0, vec[model.FeatMetroStation])
}

func TestExtractPOICanCountTwice(t *testing.T) {
	src := &mockSource{pois: []model.POI{
		poi(map[string]string{"shop": "shoes", "building": "residential"}),
	}}
	x := NewExtractor(src, testEngineConfig())

	vec, err := x.Extract(context.Background(), testCoord, 500)
	require.NoError(t, err)

	assert.Equal(t, 1.0, vec[model.FeatShopsTotal])
	assert.Equal(t, 1.0, vec[model.FeatShopsShoes])
	assert.Equal(t, 1.0, vec[model.FeatResidential])
	assert.Equal(t, 1.0, vec[model.FeatTotalPOIs])
}

func TestExtractDeterministic(t *testing.T) {
	src := &mockSource{pois: []model.POI{
		poi(map[string]string{"shop": "shoes"}),
		poi(map[string]string{"amenity": "restaurant"}),
		poi(map[string]string{"highway": "crossing"}),
	}}
	x := NewExtractor(src, testEngineConfig())

	first, err := x.Extract(context.Background(), testCoord, 500)
	require.NoError(t, err)
	second, err := x.Extract(context.Background(), testCoord, 500)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
