package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/site-scout/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	runs := []model.ScoreRun{
		{
			ID: "8c1f0a2e-1111-2222-3333-444455556666",
			Result: model.ScoreResult{
				Location:     model.Coordinate{Lat: 44.8378, Lon: -0.5792},
				RadiusMeters: 500,
				City:         "bordeaux",
				Scores:       model.MetricSet{GlobalScore: 48.08},
			},
			CreatedAt: time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "8c1f0a2e")
	assert.NotContains(t, out, "444455556666")
	assert.Contains(t, out, "bordeaux")
	assert.Contains(t, out, "48.08")
	assert.Contains(t, out, "500m")
	assert.Contains(t, out, "2026-08-12 09:30")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "8c1f0a2e", truncateID("8c1f0a2e-1111-2222-3333-444455556666"))
	assert.Equal(t, "short", truncateID("short"))
}
