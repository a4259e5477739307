package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/site-scout/internal/model"
)

var (
	scoreLat     float64
	scoreLon     float64
	scoreRadius  float64
	scoreInsight bool
	scoreSave    bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single candidate location",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		radius := scoreRadius
		if radius == 0 {
			radius = cfg.Engine.DefaultRadiusMeters
		}

		coord := model.Coordinate{Lat: scoreLat, Lon: scoreLon}
		result, err := env.Engine.Score(ctx, coord, radius)
		if err != nil {
			return eris.Wrap(err, "score location")
		}

		out := struct {
			model.ScoreResult
			RunID   string `json:"run_id,omitempty"`
			Insight string `json:"insight,omitempty"`
		}{ScoreResult: *result}

		if scoreInsight {
			ins, err := env.Insights.Generate(ctx, *result)
			if err != nil {
				return eris.Wrap(err, "generate insight")
			}
			out.Insight = ins.Text
		}

		if scoreSave {
			run, err := env.Store.SaveRun(ctx, *result)
			if err != nil {
				return eris.Wrap(err, "save run")
			}
			out.RunID = run.ID
			zap.L().Info("run saved", zap.String("id", run.ID))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	scoreCmd.Flags().Float64Var(&scoreLat, "lat", 0, "latitude (required)")
	scoreCmd.Flags().Float64Var(&scoreLon, "lon", 0, "longitude (required)")
	scoreCmd.Flags().Float64Var(&scoreRadius, "radius", 0, "analysis radius in meters (default from config)")
	scoreCmd.Flags().BoolVar(&scoreInsight, "insight", false, "attach a natural-language assessment")
	scoreCmd.Flags().BoolVar(&scoreSave, "save", false, "persist the run to the store")
	_ = scoreCmd.MarkFlagRequired("lat")
	_ = scoreCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(scoreCmd)
}
