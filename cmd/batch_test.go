package main

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/site-scout/internal/model"
)

func TestReadCandidatesParsesAllColumns(t *testing.T) {
	csv := `label,latitude,longitude,radius_meters
rue sainte-catherine,44.8378,-0.5792,500
gambetta,44.8404,-0.5805,
`
	candidates, err := readCandidates(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "rue sainte-catherine", candidates[0].Label)
	assert.Equal(t, model.Coordinate{Lat: 44.8378, Lon: -0.5792}, candidates[0].Coord)
	assert.Equal(t, 500.0, candidates[0].RadiusMeters)

	assert.Equal(t, "gambetta", candidates[1].Label)
	assert.Zero(t, candidates[1].RadiusMeters)
}

func TestReadCandidatesCoordinatesOnly(t *testing.T) {
	csv := "latitude,longitude\n48.8566,2.3522\n"

	candidates, err := readCandidates(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Empty(t, candidates[0].Label)
}

func TestReadCandidatesHeaderCaseInsensitive(t *testing.T) {
	csv := "Latitude,Longitude\n48.8566,2.3522\n"

	candidates, err := readCandidates(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestReadCandidatesRejectsMissingColumns(t *testing.T) {
	_, err := readCandidates(strings.NewReader("label,lat,lng\na,1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude and longitude")
}

func TestReadCandidatesRejectsBadCoordinate(t *testing.T) {
	_, err := readCandidates(strings.NewReader("latitude,longitude\nnot-a-number,2.35\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadCandidatesRejectsEmptyFile(t *testing.T) {
	_, err := readCandidates(strings.NewReader("latitude,longitude\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidate rows")
}

func TestScoreCandidatesPreservesOrder(t *testing.T) {
	candidates := []candidate{
		{Label: "a", Coord: model.Coordinate{Lat: 1, Lon: 1}},
		{Label: "b", Coord: model.Coordinate{Lat: 2, Lon: 2}},
		{Label: "c", Coord: model.Coordinate{Lat: 3, Lon: 3}},
	}

	results := scoreCandidates(context.Background(), candidates, 3, func(_ context.Context, c candidate) (*model.ScoreResult, error) {
		return &model.ScoreResult{Location: c.Coord, City: "bordeaux"}, nil
	})

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Label)
	assert.Equal(t, "b", results[1].Label)
	assert.Equal(t, "c", results[2].Label)
	assert.Equal(t, 2.0, results[1].Result.Location.Lat)
}

func TestScoreCandidatesIsolatesFailures(t *testing.T) {
	candidates := []candidate{
		{Label: "good", Coord: model.Coordinate{Lat: 1, Lon: 1}},
		{Label: "bad", Coord: model.Coordinate{Lat: 2, Lon: 2}},
	}

	results := scoreCandidates(context.Background(), candidates, 1, func(_ context.Context, c candidate) (*model.ScoreResult, error) {
		if c.Label == "bad" {
			return nil, errors.New("overpass timeout")
		}
		return &model.ScoreResult{Location: c.Coord}, nil
	})

	require.Len(t, results, 2)
	assert.NotNil(t, results[0].Result)
	assert.Empty(t, results[0].Error)
	assert.Nil(t, results[1].Result)
	assert.Contains(t, results[1].Error, "overpass timeout")
}

func TestWriteBatchCSV(t *testing.T) {
	results := []batchResult{
		{
			Label: "centre",
			Result: &model.ScoreResult{
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
			},
		},
		{Label: "offline", Error: "overpass timeout"},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, writeBatchCSV(results, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	assert.Equal(t, "label", header[0])
	assert.Contains(t, header, "restaurants")
	assert.Contains(t, header, "global_score")
	require.Len(t, rows[1], len(header))

	scored := rows[1]
	assert.Equal(t, "centre", scored[0])
	assert.Equal(t, "bordeaux", scored[4])
	assert.Contains(t, scored, "317.0")
	assert.Contains(t, scored, "48.08")
	assert.Empty(t, scored[len(scored)-1])

	failed := rows[2]
	assert.Equal(t, "offline", failed[0])
	assert.Equal(t, "overpass timeout", failed[len(failed)-1])
	assert.Empty(t, failed[4])
}

func TestScoreCandidatesHonorsConcurrencyLimit(t *testing.T) {
	candidates := make([]candidate, 8)
	for i := range candidates {
		candidates[i].Coord = model.Coordinate{Lat: float64(i), Lon: 0}
	}

	var active, peak atomic.Int64
	scoreCandidates(context.Background(), candidates, 2, func(_ context.Context, c candidate) (*model.ScoreResult, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer active.Add(-1)
		return &model.ScoreResult{Location: c.Coord}, nil
	})

	assert.LessOrEqual(t, peak.Load(), int64(2))
}
