package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Overpass  OverpassConfig  `yaml:"overpass" mapstructure:"overpass"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Baseline  BaselineConfig  `yaml:"baseline" mapstructure:"baseline"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures score-run persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// OverpassConfig configures the Overpass API feature source.
type OverpassConfig struct {
	Endpoint       string  `yaml:"endpoint" mapstructure:"endpoint"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// AnthropicConfig holds Anthropic API settings for the insight generator.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CatalogConfig locates the city catalog file.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BaselineConfig locates the baseline summaries and tunes the offline builder.
type BaselineConfig struct {
	Path          string  `yaml:"path" mapstructure:"path"`
	GridSpacingM  float64 `yaml:"grid_spacing_m" mapstructure:"grid_spacing_m"`
	BufferKM      float64 `yaml:"buffer_km" mapstructure:"buffer_km"`
	SampleRadiusM float64 `yaml:"sample_radius_m" mapstructure:"sample_radius_m"`
	Concurrency   int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// EngineConfig holds the scoring engine's fixed configuration: radius
// bounds, result cache tuning, walkability weights, and the per-metric
// feature weights.
type EngineConfig struct {
	MaxRadiusMeters     float64            `yaml:"max_radius_meters" mapstructure:"max_radius_meters"`
	DefaultRadiusMeters float64            `yaml:"default_radius_meters" mapstructure:"default_radius_meters"`
	CacheTTL            time.Duration      `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheMaxEntries     int                `yaml:"cache_max_entries" mapstructure:"cache_max_entries"`
	Walkability         WalkabilityWeights `yaml:"walkability" mapstructure:"walkability"`
	Weights             MetricWeights      `yaml:"weights" mapstructure:"weights"`
}

// WalkabilityWeights configures the derived walkability feature: a
// weighted sum of pedestrian infrastructure and transit stops.
type WalkabilityWeights struct {
	PedestrianWay float64 `yaml:"pedestrian_way" mapstructure:"pedestrian_way"`
	Crossing      float64 `yaml:"crossing" mapstructure:"crossing"`
	TransitStop   float64 `yaml:"transit_stop" mapstructure:"transit_stop"`
}

// MetricWeights holds the four fixed metric weight sets. Each set must
// sum to 1.0; the engine fails loudly at startup otherwise.
type MetricWeights struct {
	Attractiveness AttractivenessWeights `yaml:"attractiveness" mapstructure:"attractiveness"`
	Competition    CompetitionWeights    `yaml:"competition" mapstructure:"competition"`
	Accessibility  AccessibilityWeights  `yaml:"accessibility" mapstructure:"accessibility"`
	Suitability    SuitabilityWeights    `yaml:"suitability" mapstructure:"suitability"`
}

// AttractivenessWeights weight amenity diversity around the location.
type AttractivenessWeights struct {
	Restaurants     float64 `yaml:"restaurants" mapstructure:"restaurants"`
	Parks           float64 `yaml:"parks" mapstructure:"parks"`
	Hotels          float64 `yaml:"hotels" mapstructure:"hotels"`
	Attractions     float64 `yaml:"attractions" mapstructure:"attractions"`
	Museums         float64 `yaml:"museums" mapstructure:"museums"`
	Banks           float64 `yaml:"banks" mapstructure:"banks"`
	Pharmacy        float64 `yaml:"pharmacy" mapstructure:"pharmacy"`
	BusinessCenters float64 `yaml:"business_centers" mapstructure:"business_centers"`
}

// CompetitionWeights weight shop density, with same-segment shops
// dominating.
type CompetitionWeights struct {
	ShoeShops  float64 `yaml:"shoe_shops" mapstructure:"shoe_shops"`
	ShopsTotal float64 `yaml:"shops_total" mapstructure:"shops_total"`
}

// AccessibilityWeights weight transit and walkability features.
type AccessibilityWeights struct {
	MetroStations float64 `yaml:"metro_stations" mapstructure:"metro_stations"`
	Walkability   float64 `yaml:"walkability" mapstructure:"walkability"`
	BusStops      float64 `yaml:"bus_stops" mapstructure:"bus_stops"`
	Parking       float64 `yaml:"parking" mapstructure:"parking"`
}

// SuitabilityWeights blend the other metrics with retail-specific
// features. LowCompetition applies to the inverse (100 - competition).
type SuitabilityWeights struct {
	LowCompetition  float64 `yaml:"low_competition" mapstructure:"low_competition"`
	Accessibility   float64 `yaml:"accessibility" mapstructure:"accessibility"`
	ShopsTotal      float64 `yaml:"shops_total" mapstructure:"shops_total"`
	Restaurants     float64 `yaml:"restaurants" mapstructure:"restaurants"`
	Residential     float64 `yaml:"residential" mapstructure:"residential"`
	BusinessCenters float64 `yaml:"business_centers" mapstructure:"business_centers"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "site-scout.db")
	v.SetDefault("overpass.endpoint", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 30)
	v.SetDefault("overpass.max_retries", 3)
	v.SetDefault("overpass.requests_per_sec", 2)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("catalog.path", "data/cities.yaml")
	v.SetDefault("baseline.path", "data/baselines.json")
	v.SetDefault("baseline.grid_spacing_m", 250)
	v.SetDefault("baseline.buffer_km", 2)
	v.SetDefault("baseline.sample_radius_m", 500)
	v.SetDefault("baseline.concurrency", 4)
	v.SetDefault("engine.max_radius_meters", 2000)
	v.SetDefault("engine.default_radius_meters", 500)
	v.SetDefault("engine.cache_ttl", "15m")
	v.SetDefault("engine.cache_max_entries", 4096)
	v.SetDefault("engine.walkability.pedestrian_way", 1.0)
	v.SetDefault("engine.walkability.crossing", 0.5)
	v.SetDefault("engine.walkability.transit_stop", 0.5)
	v.SetDefault("engine.weights.attractiveness.restaurants", 0.40)
	v.SetDefault("engine.weights.attractiveness.parks", 0.25)
	v.SetDefault("engine.weights.attractiveness.hotels", 0.10)
	v.SetDefault("engine.weights.attractiveness.attractions", 0.05)
	v.SetDefault("engine.weights.attractiveness.museums", 0.05)
	v.SetDefault("engine.weights.attractiveness.banks", 0.05)
	v.SetDefault("engine.weights.attractiveness.pharmacy", 0.05)
	v.SetDefault("engine.weights.attractiveness.business_centers", 0.05)
	v.SetDefault("engine.weights.competition.shoe_shops", 0.70)
	v.SetDefault("engine.weights.competition.shops_total", 0.30)
	v.SetDefault("engine.weights.accessibility.metro_stations", 0.40)
	v.SetDefault("engine.weights.accessibility.walkability", 0.30)
	v.SetDefault("engine.weights.accessibility.bus_stops", 0.20)
	v.SetDefault("engine.weights.accessibility.parking", 0.10)
	v.SetDefault("engine.weights.suitability.low_competition", 0.40)
	v.SetDefault("engine.weights.suitability.accessibility", 0.20)
	v.SetDefault("engine.weights.suitability.shops_total", 0.15)
	v.SetDefault("engine.weights.suitability.restaurants", 0.15)
	v.SetDefault("engine.weights.suitability.residential", 0.05)
	v.SetDefault("engine.weights.suitability.business_centers", 0.05)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
