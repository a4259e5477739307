package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/site-scout/internal/model"
)

var (
	batchCSV         string
	batchLimit       int
	batchConcurrency int
	batchOutput      string
	batchFormat      string
	batchSave        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score candidate locations from a CSV file",
	Long: `Reads candidate locations from a CSV and scores them concurrently.

The CSV needs latitude and longitude columns; label and radius_meters
columns are optional. Rows beyond --limit are skipped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		candidates, err := parseCandidatesCSV(batchCSV)
		if err != nil {
			return eris.Wrap(err, "batch: parse csv")
		}
		zap.L().Info("parsed csv", zap.Int("candidates", len(candidates)))

		if batchLimit > 0 && len(candidates) > batchLimit {
			candidates = candidates[:batchLimit]
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		results := scoreCandidates(ctx, candidates, batchConcurrency, func(ctx context.Context, c candidate) (*model.ScoreResult, error) {
			radius := c.RadiusMeters
			if radius == 0 {
				radius = cfg.Engine.DefaultRadiusMeters
			}
			result, err := env.Engine.Score(ctx, c.Coord, radius)
			if err != nil {
				return nil, err
			}
			if batchSave {
				if _, saveErr := env.Store.SaveRun(ctx, *result); saveErr != nil {
					zap.L().Warn("save run failed", zap.String("label", c.Label), zap.Error(saveErr))
				}
			}
			return result, nil
		})

		if batchFormat == "csv" {
			return writeBatchCSV(results, batchOutput)
		}
		return writeBatchResults(results, batchOutput)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "path to candidates CSV (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max candidates to score (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 3, "max candidates scored concurrently")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results to file (default: stdout)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "json", "output format: json (default) or csv")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "persist each run to the store")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}

// candidate is one CSV row.
type candidate struct {
	Label        string
	Coord        model.Coordinate
	RadiusMeters float64
}

// batchResult pairs a candidate with its score or failure.
type batchResult struct {
	Label  string             `json:"label,omitempty"`
	Result *model.ScoreResult `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// parseCandidatesCSV reads candidate locations. Column order is taken
// from the header row; latitude and longitude are required.
func parseCandidatesCSV(path string) ([]candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open csv")
	}
	defer f.Close() //nolint:errcheck

	return readCandidates(f)
}

func readCandidates(r io.Reader) ([]candidate, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "read csv header")
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	latIdx, latOK := cols["latitude"]
	lonIdx, lonOK := cols["longitude"]
	if !latOK || !lonOK {
		return nil, eris.New("csv must have latitude and longitude columns")
	}
	labelIdx, hasLabel := cols["label"]
	radiusIdx, hasRadius := cols["radius_meters"]

	var candidates []candidate
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read csv line %d", line)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(record[latIdx]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parse latitude on line %d", line)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(record[lonIdx]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parse longitude on line %d", line)
		}

		c := candidate{Coord: model.Coordinate{Lat: lat, Lon: lon}}
		if hasLabel && labelIdx < len(record) {
			c.Label = strings.TrimSpace(record[labelIdx])
		}
		if hasRadius && radiusIdx < len(record) && strings.TrimSpace(record[radiusIdx]) != "" {
			c.RadiusMeters, err = strconv.ParseFloat(strings.TrimSpace(record[radiusIdx]), 64)
			if err != nil {
				return nil, eris.Wrapf(err, "parse radius_meters on line %d", line)
			}
		}
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return nil, eris.New("csv has no candidate rows")
	}
	return candidates, nil
}

// scoreFunc scores one candidate.
type scoreFunc func(ctx context.Context, c candidate) (*model.ScoreResult, error)

// scoreCandidates scores candidates concurrently. Individual failures
// are recorded in the result set, not propagated; output order follows
// input order.
func scoreCandidates(ctx context.Context, candidates []candidate, concurrency int, score scoreFunc) []batchResult {
	zap.L().Info("scoring batch",
		zap.Int("candidates", len(candidates)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]batchResult, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	var succeeded, failed atomic.Int64

	for i, c := range candidates {
		g.Go(func() error {
			log := zap.L().With(
				zap.String("label", c.Label),
				zap.Float64("lat", c.Coord.Lat),
				zap.Float64("lon", c.Coord.Lon),
			)

			result, err := score(gCtx, c)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed.Add(1)
				log.Error("candidate failed", zap.Error(err))
				results[i] = batchResult{Label: c.Label, Error: err.Error()}
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("candidate scored",
				zap.String("city", result.City),
				zap.Float64("global", result.Scores.GlobalScore),
			)
			results[i] = batchResult{Label: c.Label, Result: result}
			return nil
		})
	}

	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results
}

// writeBatchCSV writes one row per candidate: coordinates, resolved
// city, raw feature counts in canonical order, the five scores, and an
// error column for failed rows.
func writeBatchCSV(results []batchResult, output string) error {
	var w *os.File
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrap(err, "batch: create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	} else {
		w = os.Stdout
	}

	cw := csv.NewWriter(w)

	header := []string{"label", "latitude", "longitude", "radius_m", "city"}
	header = append(header, model.AllFeatures...)
	header = append(header, "attractiveness", "competition", "accessibility", "suitability", "global_score", "error")
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "batch: write csv header")
	}

	for _, r := range results {
		row := make([]string, 0, len(header))
		row = append(row, r.Label)
		if r.Result == nil {
			for range len(header) - 2 {
				row = append(row, "")
			}
			row = append(row, r.Error)
		} else {
			res := r.Result
			row = append(row,
				strconv.FormatFloat(res.Location.Lat, 'f', 5, 64),
				strconv.FormatFloat(res.Location.Lon, 'f', 5, 64),
				strconv.FormatFloat(res.RadiusMeters, 'f', 0, 64),
				res.City,
			)
			for _, feat := range model.AllFeatures {
				row = append(row, strconv.FormatFloat(res.Features.Get(feat), 'f', 1, 64))
			}
			row = append(row,
				strconv.FormatFloat(res.Scores.Attractiveness, 'f', 2, 64),
				strconv.FormatFloat(res.Scores.Competition, 'f', 2, 64),
				strconv.FormatFloat(res.Scores.Accessibility, 'f', 2, 64),
				strconv.FormatFloat(res.Scores.Suitability, 'f', 2, 64),
				strconv.FormatFloat(res.Scores.GlobalScore, 'f', 2, 64),
				"",
			)
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "batch: write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "batch: flush csv")
}

// writeBatchResults writes results to the output file or stdout.
func writeBatchResults(results []batchResult, output string) error {
	var w *os.File
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrap(err, "batch: create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	} else {
		w = os.Stdout
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
