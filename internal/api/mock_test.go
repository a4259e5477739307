package api

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/site-scout/internal/config"
	"github.com/sells-group/site-scout/internal/insight"
	"github.com/sells-group/site-scout/internal/model"
	"github.com/sells-group/site-scout/internal/store"
)

var errNotFound = errors.New("not found")

type mockScorer struct {
	result     *model.ScoreResult
	err        error
	lastCoord  model.Coordinate
	lastRadius float64
	calls      int
}

func (m *mockScorer) Score(_ context.Context, coord model.Coordinate, radiusMeters float64) (*model.ScoreResult, error) {
	m.calls++
	m.lastCoord = coord
	m.lastRadius = radiusMeters
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockInsights struct {
	text string
	err  error
}

func (m *mockInsights) Generate(_ context.Context, _ model.ScoreResult) (insight.Insight, error) {
	if m.err != nil {
		return insight.Insight{}, m.err
	}
	return insight.Insight{Text: m.text, Generated: true}, nil
}

type mockStore struct {
	runs       []model.ScoreRun
	saveErr    error
	listErr    error
	lastFilter store.RunFilter
	saved      []model.ScoreResult
}

func (m *mockStore) SaveRun(_ context.Context, result model.ScoreResult) (*model.ScoreRun, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = append(m.saved, result)
	run := model.ScoreRun{ID: "run-1", Result: result, CreatedAt: time.Now()}
	return &run, nil
}

func (m *mockStore) GetRun(_ context.Context, id string) (*model.ScoreRun, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, errNotFound
}

func (m *mockStore) ListRuns(_ context.Context, filter store.RunFilter) ([]model.ScoreRun, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.runs, nil
}

func (m *mockStore) Migrate(context.Context) error { return nil }
func (m *mockStore) Close() error                  { return nil }

func testResult() *model.ScoreResult {
	return &model.ScoreResult{
		Location:     model.Coordinate{Lat: 44.8378, Lon: -0.5792},
		RadiusMeters: 500,
		City:         "bordeaux",
		Scores: model.MetricSet{
			Attractiveness: 61.28,
			Competition:    65.39,
			Accessibility:  19.58,
			Suitability:    46.06,
			GlobalScore:    48.08,
		},
		Features: model.RawFeatureVector{
			model.FeatRestaurants: 317,
			model.FeatShopsTotal:  679,
		},
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Engine.DefaultRadiusMeters = 500
	cfg.Server.AllowedOrigins = []string{"*"}
	return cfg
}
