package model

import "time"

// UnknownCity is reported when no cataloged city contains the
// coordinate and scoring fell back to the default baseline.
const UnknownCity = "unknown"

// MetricSet is the terminal output of the scoring engine. Each metric is
// in [0, 100], rounded to two decimals; GlobalScore is the unweighted
// mean of the four.
type MetricSet struct {
	Attractiveness float64 `json:"attractiveness"`
	Competition    float64 `json:"competition"`
	Accessibility  float64 `json:"accessibility"`
	Suitability    float64 `json:"suitability"`
	GlobalScore    float64 `json:"global_score"`
}

// ScoreResult is the scoring boundary payload consumed by the HTTP
// layer, the batch runner, and the insight generator.
type ScoreResult struct {
	Location     Coordinate       `json:"location"`
	RadiusMeters float64          `json:"radius_meters"`
	City         string           `json:"city"` // city ID, or "unknown"
	Scores       MetricSet        `json:"scores"`
	Features     RawFeatureVector `json:"features"`
}

// ScoreRun is a persisted scoring request, stored for later review.
type ScoreRun struct {
	ID        string      `json:"id"`
	Result    ScoreResult `json:"result"`
	CreatedAt time.Time   `json:"created_at"`
}
