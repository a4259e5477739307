// Package overpass wraps the Overpass API as the POI feature source:
// one radius query returning every tagged element the extractor cares
// about, with rate limiting and retry on transient failures.
package overpass

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	upstream "github.com/serjvanilla/go-overpass"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/site-scout/internal/config"
	"github.com/sells-group/site-scout/internal/model"
	"github.com/sells-group/site-scout/internal/resilience"
)

// tagSelectors enumerate the OSM tags the extractor partitions on.
// Anything not matched here would be dead weight in the response.
var tagSelectors = []string{
	`["shop"]`,
	`["amenity"~"restaurant|fast_food|bank|pharmacy|parking"]`,
	`["railway"="station"]`,
	`["highway"~"bus_stop|pedestrian|footway|cycleway|crossing"]`,
	`["tourism"~"hotel|attraction|museum"]`,
	`["leisure"="park"]`,
	`["office"]`,
	`["building"="residential"]`,
	`["landuse"="residential"]`,
}

// querier is the seam for tests; *upstream.Client satisfies it.
type querier interface {
	Query(query string) (upstream.Result, error)
}

// Client queries Overpass for POIs around a coordinate. Safe for
// concurrent use; all callers share one rate limiter so grid builds do
// not hammer the public endpoint.
type Client struct {
	api     querier
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
	log     *zap.Logger
}

// New builds a Client from config.
func New(cfg config.OverpassConfig) *Client {
	httpClient := &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second}
	api := upstream.NewWithSettings(cfg.Endpoint, 1, httpClient)

	retry := resilience.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}

	log := zap.L().Named("overpass")

	breakerCfg := resilience.DefaultCircuitBreakerConfig()
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		log.Warn("circuit state changed",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}

	return &Client{
		api:     &api,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retry:   retry,
		breaker: resilience.NewCircuitBreaker(breakerCfg),
		log:     log,
	}
}

// Query returns every tagged POI within radiusMeters of coord. Ways are
// reduced to the centroid of their member nodes so the extractor only
// ever sees points.
func (c *Client) Query(ctx context.Context, coord model.Coordinate, radiusMeters float64) ([]model.POI, error) {
	q := buildQuery(coord, radiusMeters)

	retry := c.retry
	retry.OnRetry = func(attempt int, err error) {
		c.log.Warn("retrying overpass query",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	result, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (upstream.Result, error) {
		// breaker sits inside the retry loop so consecutive failures
		// trip it; once open, ErrCircuitOpen is permanent and the
		// retry loop bails immediately
		return resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) (upstream.Result, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return upstream.Result{}, err
			}
			res, err := c.api.Query(q)
			if err != nil {
				// the upstream client hides status codes, so classify
				// everything that is not a context error as transient
				if ctx.Err() != nil {
					return upstream.Result{}, err
				}
				return upstream.Result{}, resilience.NewTransientError(err, 0)
			}
			return res, nil
		})
	})
	if err != nil {
		return nil, eris.Wrapf(err, "overpass: query around %s", coord)
	}

	pois := collectPOIs(result)
	c.log.Debug("overpass query complete",
		zap.Float64("lat", coord.Lat),
		zap.Float64("lon", coord.Lon),
		zap.Float64("radius_m", radiusMeters),
		zap.Int("pois", len(pois)),
	)
	return pois, nil
}

// buildQuery emits one Overpass QL request covering every tag selector
// for both nodes and ways inside the radius.
func buildQuery(coord model.Coordinate, radiusMeters float64) string {
	var b strings.Builder
	b.WriteString("[out:json];\n(\n")
	around := fmt.Sprintf("(around:%.0f,%.6f,%.6f)", radiusMeters, coord.Lat, coord.Lon)
	for _, sel := range tagSelectors {
		fmt.Fprintf(&b, "  node%s%s;\n", sel, around)
		fmt.Fprintf(&b, "  way%s%s;\n", sel, around)
	}
	b.WriteString(");\nout body;\n>;\nout skel qt;\n")
	return b.String()
}

func collectPOIs(result upstream.Result) []model.POI {
	pois := make([]model.POI, 0, len(result.Nodes)+len(result.Ways))

	for _, node := range result.Nodes {
		if node == nil || len(node.Tags) == 0 {
			continue
		}
		pois = append(pois, model.POI{
			ID:   node.ID,
			Lat:  node.Lat,
			Lon:  node.Lon,
			Tags: node.Tags,
		})
	}

	for _, way := range result.Ways {
		if way == nil || len(way.Tags) == 0 {
			continue
		}
		lat, lon, ok := wayCentroid(way)
		if !ok {
			continue
		}
		pois = append(pois, model.POI{
			ID:   way.ID,
			Lat:  lat,
			Lon:  lon,
			Tags: way.Tags,
		})
	}

	return pois
}

func wayCentroid(way *upstream.Way) (lat, lon float64, ok bool) {
	var n float64
	for _, node := range way.Nodes {
		if node == nil {
			continue
		}
		lat += node.Lat
		lon += node.Lon
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return lat / n, lon / n, true
}
