package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/site-scout/internal/baseline"
	"github.com/sells-group/site-scout/internal/city"
	"github.com/sells-group/site-scout/internal/engine"
	"github.com/sells-group/site-scout/internal/insight"
	"github.com/sells-group/site-scout/internal/store"
	anthropicpkg "github.com/sells-group/site-scout/pkg/anthropic"
	"github.com/sells-group/site-scout/pkg/overpass"
)

// scoutEnv holds the initialized engine, stores, and clients needed by
// the serve/score/batch commands.
type scoutEnv struct {
	Engine   *engine.Engine
	Catalog  *city.Catalog
	Store    store.Store
	Insights *insight.Generator
}

// Close releases resources held by the environment.
func (se *scoutEnv) Close() {
	if se.Store != nil {
		_ = se.Store.Close()
	}
}

// initEnv loads the city catalog and baselines, validates baseline
// coverage, and wires the scoring engine. Callers should defer
// env.Close().
func initEnv(ctx context.Context) (*scoutEnv, error) {
	catalog, err := city.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load city catalog")
	}

	baselines, err := baseline.LoadStore(cfg.Baseline.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load baselines")
	}
	if err := baselines.Validate(catalogCityIDs(catalog)); err != nil {
		return nil, eris.Wrap(err, "validate baselines")
	}

	source := overpass.New(cfg.Overpass)
	extractor := engine.NewExtractor(source, cfg.Engine)

	eng, err := engine.New(extractor, catalog, baselines, cfg.Engine)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	// Insight generation is optional; without a key the generator falls
	// back to deterministic summaries.
	var aiClient anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		aiClient = anthropicpkg.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Debug("SITESCOUT_ANTHROPIC_KEY not set, using deterministic insight summaries")
	}
	gen := insight.NewGenerator(aiClient, cfg.Anthropic)

	zap.L().Info("environment ready",
		zap.Int("cities", len(catalog.Cities())),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("ai_insights", aiClient != nil),
	)

	return &scoutEnv{
		Engine:   eng,
		Catalog:  catalog,
		Store:    st,
		Insights: gen,
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "site-scout.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func catalogCityIDs(catalog *city.Catalog) []string {
	cities := catalog.Cities()
	ids := make([]string, 0, len(cities))
	for _, c := range cities {
		ids = append(ids, c.ID)
	}
	return ids
}
