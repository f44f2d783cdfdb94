package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mirastream/mirastream/internal/stream"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig         `mapstructure:"server"`
	Logging      LoggingConfig        `mapstructure:"logging"`
	Providers    ProvidersConfig      `mapstructure:"providers"`
	Debrid       DebridConfig         `mapstructure:"debrid"`
	Availability AvailabilityConfig   `mapstructure:"availability"`
	Search       SearchConfig         `mapstructure:"search"`
	Scoring      stream.ScoringConfig `mapstructure:"scoring"`
	Filter       stream.FilterConfig  `mapstructure:"filter"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// ProvidersConfig holds the stream index endpoints.
type ProvidersConfig struct {
	Torrentio TorrentioConfig `mapstructure:"torrentio"`
	Nyaa      NyaaConfig      `mapstructure:"nyaa"`
}

// TorrentioConfig holds the Torrentio-style aggregator settings.
type TorrentioConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	Options string `mapstructure:"options"`
}

// NyaaConfig holds the anime RSS index settings.
type NyaaConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	BaseURL    string   `mapstructure:"base_url"`
	Categories []string `mapstructure:"categories"`
}

// DebridConfig holds the caching service credentials and resolution
// timing.
type DebridConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
	DeleteOnFailure bool          `mapstructure:"delete_on_failure"`
}

// AvailabilityConfig holds the instant-availability cache settings.
type AvailabilityConfig struct {
	// Backend is "memory", "redis", or "off".
	Backend             string        `mapstructure:"backend"`
	TTL                 time.Duration `mapstructure:"ttl"`
	RedisAddr           string        `mapstructure:"redis_addr"`
	RedisPassword       string        `mapstructure:"redis_password"`
	RedisDB             int           `mapstructure:"redis_db"`
	MaxConcurrentChecks int64         `mapstructure:"max_concurrent_checks"`
}

// SearchConfig holds search orchestration settings.
type SearchConfig struct {
	PreferredLanguages []string      `mapstructure:"preferred_languages"`
	RateLimitQueries   int           `mapstructure:"rate_limit_queries"`
	RateLimitPeriod    time.Duration `mapstructure:"rate_limit_period"`
}

// Default returns a Config with default values.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v)
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.mirastream")
	}

	v.SetEnvPrefix("MIRASTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Debrid.APIKey == "" {
		cfg.Debrid.APIKey = EmbeddedDebridKey
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")

	v.SetDefault("providers.torrentio.enabled", true)
	v.SetDefault("providers.torrentio.base_url", "")
	v.SetDefault("providers.torrentio.options", "")
	v.SetDefault("providers.nyaa.enabled", true)
	v.SetDefault("providers.nyaa.base_url", "")
	v.SetDefault("providers.nyaa.categories", []string{"1_2", "1_4"})

	v.SetDefault("debrid.api_key", "")
	v.SetDefault("debrid.base_url", "")
	v.SetDefault("debrid.poll_interval", 5*time.Second)
	v.SetDefault("debrid.timeout", 2*time.Minute)
	v.SetDefault("debrid.delete_on_failure", true)

	v.SetDefault("availability.backend", "memory")
	v.SetDefault("availability.ttl", 15*time.Minute)
	v.SetDefault("availability.redis_addr", "localhost:6379")
	v.SetDefault("availability.redis_password", "")
	v.SetDefault("availability.redis_db", 0)
	v.SetDefault("availability.max_concurrent_checks", 4)

	v.SetDefault("search.preferred_languages", []string{"English"})
	v.SetDefault("search.rate_limit_queries", 120)
	v.SetDefault("search.rate_limit_period", time.Hour)

	scoring := stream.DefaultScoringConfig()
	v.SetDefault("scoring.quality_1080p_points", scoring.Quality1080pPoints)
	v.SetDefault("scoring.quality_720p_points", scoring.Quality720pPoints)
	v.SetDefault("scoring.quality_2160p_points", scoring.Quality2160pPoints)
	v.SetDefault("scoring.quality_other_points", scoring.QualityOtherPoints)
	v.SetDefault("scoring.cached_points", scoring.CachedPoints)
	v.SetDefault("scoring.language_points", scoring.LanguagePoints)
	v.SetDefault("scoring.preferred_language_points", scoring.PreferredLanguagePoints)
	v.SetDefault("scoring.seeder_scale", scoring.SeederScale)
	v.SetDefault("scoring.size_penalty_weight", scoring.SizePenaltyWeight)
	v.SetDefault("scoring.size_exponent", scoring.SizeExponent)
	v.SetDefault("scoring.recommend_count", scoring.RecommendCount)

	filter := stream.DefaultFilterConfig()
	v.SetDefault("filter.movie_min_mb", filter.MovieMinMB)
	v.SetDefault("filter.episode_factor", filter.EpisodeFactor)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
