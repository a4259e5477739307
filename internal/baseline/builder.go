package baseline

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/site-scout/internal/city"
	"github.com/sells-group/site-scout/internal/config"
	"github.com/sells-group/site-scout/internal/engine"
	"github.com/sells-group/site-scout/internal/model"
)

const metersPerDegreeLat = 111320.0

// Builder computes city baselines by sampling a fixed grid of points
// over each city's boundary and summarizing the raw feature vectors
// into percentile breakpoints. It runs the same Extractor the live
// engine uses, so stored percentiles and live queries share identical
// feature semantics.
type Builder struct {
	extractor *engine.Extractor
	cfg       config.BaselineConfig
	log       *zap.Logger
}

// NewBuilder wires a Builder around the shared extractor.
func NewBuilder(extractor *engine.Extractor, cfg config.BaselineConfig) *Builder {
	return &Builder{
		extractor: extractor,
		cfg:       cfg,
		log:       zap.L().Named("baseline"),
	}
}

// Build computes baselines for every given city plus the pooled default
// baseline aggregated over all sampled cells.
func (b *Builder) Build(ctx context.Context, cities []city.City) ([]model.BaselineRecord, error) {
	if len(cities) == 0 {
		return nil, eris.New("baseline: no cities to build")
	}

	var records []model.BaselineRecord
	var pooled []model.RawFeatureVector

	for _, c := range cities {
		samples, err := b.sampleCity(ctx, c)
		if err != nil {
			return nil, eris.Wrapf(err, "baseline: city %s", c.ID)
		}
		b.log.Info("sampled city grid",
			zap.String("city", c.ID),
			zap.Int("cells", len(samples)),
		)
		records = append(records, summarize(c.ID, samples)...)
		pooled = append(pooled, samples...)
	}

	records = append(records, summarize(model.DefaultCityID, pooled)...)
	return records, nil
}

// sampleCity extracts the raw feature vector at every grid cell over
// the city's buffered bounding box.
func (b *Builder) sampleCity(ctx context.Context, c city.City) ([]model.RawFeatureVector, error) {
	points := gridPoints(c.Boundary, b.cfg.GridSpacingM, b.cfg.BufferKM)
	if len(points) == 0 {
		return nil, eris.New("boundary produced no grid cells")
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.cfg.Concurrency))

	var mu sync.Mutex
	samples := make([]model.RawFeatureVector, 0, len(points))

	for _, p := range points {
		g.Go(func() error {
			vec, err := b.extractor.Extract(gCtx, p, b.cfg.SampleRadiusM)
			if err != nil {
				return eris.Wrapf(err, "cell %s", p)
			}
			mu.Lock()
			samples = append(samples, vec)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

// gridPoints lays a regular grid over the boundary's bounding box,
// expanded outward by bufferKM so edge cells keep their full radius of
// context. Spacing is spacingM meters in both axes; longitude spacing
// is corrected for latitude.
func gridPoints(boundary [][]float64, spacingM, bufferKM float64) []model.Coordinate {
	if len(boundary) < 3 || spacingM <= 0 {
		return nil
	}

	minLon, minLat := boundary[0][0], boundary[0][1]
	maxLon, maxLat := minLon, minLat
	for _, pt := range boundary {
		minLon, maxLon = min(minLon, pt[0]), max(maxLon, pt[0])
		minLat, maxLat = min(minLat, pt[1]), max(maxLat, pt[1])
	}

	bufferLat := bufferKM * 1000 / metersPerDegreeLat
	midLat := (minLat + maxLat) / 2
	cosLat := math.Cos(midLat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	bufferLon := bufferKM * 1000 / (metersPerDegreeLat * cosLat)

	minLat -= bufferLat
	maxLat += bufferLat
	minLon -= bufferLon
	maxLon += bufferLon

	stepLat := spacingM / metersPerDegreeLat
	stepLon := spacingM / (metersPerDegreeLat * cosLat)

	var points []model.Coordinate
	for lat := minLat; lat <= maxLat; lat += stepLat {
		for lon := minLon; lon <= maxLon; lon += stepLon {
			points = append(points, model.Coordinate{Lat: lat, Lon: lon})
		}
	}
	return points
}

// summarize reduces sample vectors to one distribution record per
// feature.
func summarize(cityID string, samples []model.RawFeatureVector) []model.BaselineRecord {
	records := make([]model.BaselineRecord, 0, len(model.AllFeatures))
	for _, feat := range model.AllFeatures {
		values := make([]float64, len(samples))
		for i, s := range samples {
			values[i] = s.Get(feat)
		}
		records = append(records, model.BaselineRecord{
			CityID:              cityID,
			Feature:             feat,
			FeatureDistribution: distribution(values),
		})
	}
	return records
}

// distribution computes the stored summary: min, mean, max, and the
// nine deciles by linear interpolation over the sorted samples.
func distribution(values []float64) model.FeatureDistribution {
	if len(values) == 0 {
		return model.FeatureDistribution{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return model.FeatureDistribution{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: sum / float64(len(sorted)),
		P10:  quantile(sorted, 0.1),
		P20:  quantile(sorted, 0.2),
		P30:  quantile(sorted, 0.3),
		P40:  quantile(sorted, 0.4),
		P50:  quantile(sorted, 0.5),
		P60:  quantile(sorted, 0.6),
		P70:  quantile(sorted, 0.7),
		P80:  quantile(sorted, 0.8),
		P90:  quantile(sorted, 0.9),
	}
}

// quantile interpolates linearly between the two sorted samples
// bracketing rank q*(n-1).
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
