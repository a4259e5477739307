package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/site-scout/internal/config"
	"github.com/sells-group/site-scout/internal/model"
)

// CityResolver maps a coordinate to a city identifier. Coordinates
// outside every known boundary resolve to model.UnknownCity.
type CityResolver interface {
	Resolve(coord model.Coordinate) string
}

// BaselineStore serves the pre-computed per-city feature distributions.
// For never fails: an unknown city falls back to the default baseline.
type BaselineStore interface {
	For(cityID string) model.CityBaseline
}

// Engine runs the full scoring pipeline: extract raw features, resolve
// the city, normalize against its baseline, aggregate into metrics.
type Engine struct {
	extractor *Extractor
	resolver  CityResolver
	baselines BaselineStore
	weights   config.MetricWeights
	cache     *resultCache
	log       *zap.Logger
}

// New builds an Engine and validates the metric weights up front.
func New(extractor *Extractor, resolver CityResolver, baselines BaselineStore, cfg config.EngineConfig) (*Engine, error) {
	if err := ValidateWeights(cfg.Weights); err != nil {
		return nil, err
	}
	return &Engine{
		extractor: extractor,
		resolver:  resolver,
		baselines: baselines,
		weights:   cfg.Weights,
		cache:     newResultCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		log:       zap.L().Named("engine"),
	}, nil
}

// Score evaluates one location. Results for the same quantized
// coordinate and radius are served from cache until the TTL lapses, so
// a burst of identical requests costs one feature-source query.
func (e *Engine) Score(ctx context.Context, coord model.Coordinate, radiusMeters float64) (*model.ScoreResult, error) {
	if err := e.extractor.ValidateRadius(radiusMeters); err != nil {
		return nil, err
	}
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	key := cacheKey(coord, radiusMeters)
	if cached, ok := e.cache.get(key); ok {
		e.log.Debug("cache hit", zap.String("key", key))
		return &cached, nil
	}

	raw, err := e.extractor.Extract(ctx, coord, radiusMeters)
	if err != nil {
		return nil, err
	}

	city := e.resolver.Resolve(coord)
	baseline := e.baselines.For(city)
	normalized := Normalize(raw, baseline)
	scores := Aggregate(normalized, e.weights)

	result := model.ScoreResult{
		Location:     coord,
		RadiusMeters: radiusMeters,
		City:         city,
		Scores:       scores,
		Features:     raw,
	}

	e.log.Info("scored location",
		zap.Float64("lat", coord.Lat),
		zap.Float64("lon", coord.Lon),
		zap.Float64("radius_m", radiusMeters),
		zap.String("city", city),
		zap.Float64("global", scores.GlobalScore),
	)

	e.cache.put(key, result)
	return &result, nil
}
