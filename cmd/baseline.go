package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/site-scout/internal/baseline"
	"github.com/sells-group/site-scout/internal/city"
	"github.com/sells-group/site-scout/internal/engine"
	"github.com/sells-group/site-scout/pkg/overpass"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage per-city feature baselines",
}

var (
	baselineBuildOut    string
	baselineBuildCities []string
)

var baselineBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Sample cataloged cities and compute percentile baselines",
	Long: `Samples a grid of points across each cataloged city, extracts raw
features at every point, and summarizes each feature's distribution into
decile breakpoints. A pooled default baseline covering all samples is
written alongside the per-city records.

This hits the Overpass API once per grid point. With the default 250m
spacing a large city is thousands of requests; expect a build to take
hours and mind the endpoint's rate limits.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		catalog, err := city.LoadCatalog(cfg.Catalog.Path)
		if err != nil {
			return eris.Wrap(err, "load city catalog")
		}

		cities := catalog.Cities()
		if len(baselineBuildCities) > 0 {
			selected := make([]city.City, 0, len(baselineBuildCities))
			for _, name := range baselineBuildCities {
				c, ok := catalog.Lookup(name)
				if !ok {
					return eris.Errorf("unknown city: %s", name)
				}
				selected = append(selected, c)
			}
			cities = selected
		}

		source := overpass.New(cfg.Overpass)
		extractor := engine.NewExtractor(source, cfg.Engine)
		builder := baseline.NewBuilder(extractor, cfg.Baseline)

		records, err := builder.Build(ctx, cities)
		if err != nil {
			return eris.Wrap(err, "build baselines")
		}

		out := baselineBuildOut
		if out == "" {
			out = cfg.Baseline.Path
		}
		if err := baseline.WriteRecords(out, records); err != nil {
			return eris.Wrap(err, "write baselines")
		}

		zap.L().Info("baselines written",
			zap.String("path", out),
			zap.Int("records", len(records)),
			zap.Int("cities", len(cities)),
		)
		return nil
	},
}

var baselineValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check baseline coverage against the city catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := city.LoadCatalog(cfg.Catalog.Path)
		if err != nil {
			return eris.Wrap(err, "load city catalog")
		}

		baselines, err := baseline.LoadStore(cfg.Baseline.Path)
		if err != nil {
			return eris.Wrap(err, "load baselines")
		}

		if err := baselines.Validate(catalogCityIDs(catalog)); err != nil {
			return err
		}

		zap.L().Info("baselines valid",
			zap.String("path", cfg.Baseline.Path),
			zap.Int("cities", len(catalog.Cities())),
		)
		return nil
	},
}

func init() {
	baselineBuildCmd.Flags().StringVar(&baselineBuildOut, "output", "", "output path (default from config)")
	baselineBuildCmd.Flags().StringSliceVar(&baselineBuildCities, "city", nil, "restrict build to named cities (repeatable)")

	baselineCmd.AddCommand(baselineBuildCmd)
	baselineCmd.AddCommand(baselineValidateCmd)
	rootCmd.AddCommand(baselineCmd)
}
