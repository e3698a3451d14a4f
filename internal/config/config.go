// Package config loads application configuration from an optional
// config.yaml and MODELINPUTS_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the read-only API.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins" mapstructure:"cors_allow_origins"`
}

// DataConfig locates the raw extracts and the snapshot output.
type DataConfig struct {
	// Base is a directory, file://, http(s):// or ftp:// prefix.
	Base          string `yaml:"base" mapstructure:"base"`
	DepthDir      string `yaml:"depth_dir" mapstructure:"depth_dir"`
	EfficiencyDir string `yaml:"efficiency_dir" mapstructure:"efficiency_dir"`
	PlayersDir    string `yaml:"players_dir" mapstructure:"players_dir"`
	TeamMap       string `yaml:"team_map" mapstructure:"team_map"`
	OutputDir     string `yaml:"output_dir" mapstructure:"output_dir"`
}

// IngestConfig configures pipeline runs.
type IngestConfig struct {
	Concurrency   int    `yaml:"concurrency" mapstructure:"concurrency"`
	TuningFile    string `yaml:"tuning_file" mapstructure:"tuning_file"`
	UnmappedLimit int    `yaml:"unmapped_limit" mapstructure:"unmapped_limit"`
	Snapshots     bool   `yaml:"snapshots" mapstructure:"snapshots"`
}

// FetchConfig configures remote content stores.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Timeout returns TimeoutSecs as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MODELINPUTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "model_inputs.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allow_origins", []string{"*"})
	v.SetDefault("data.base", ".")
	v.SetDefault("data.depth_dir", "data/player/depth")
	v.SetDefault("data.efficiency_dir", "data/market/efficiency")
	v.SetDefault("data.players_dir", "data/player/players")
	v.SetDefault("data.team_map", "data/teams_map.json")
	v.SetDefault("data.output_dir", "data/player")
	v.SetDefault("ingest.concurrency", 2)
	v.SetDefault("ingest.unmapped_limit", 20)
	v.SetDefault("ingest.snapshots", true)
	v.SetDefault("fetch.user_agent", "model-inputs/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 10)

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

// Validate checks the settings a command mode needs: "ingest", "project",
// "serve", "migrate" or "runs".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch strings.ToLower(c.Store.Driver) {
	case "postgres", "postgresql", "pgx":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	case "sqlite", "":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}

	switch mode {
	case "ingest":
		if c.Ingest.Concurrency < 1 || c.Ingest.Concurrency > 16 {
			errs = append(errs, "ingest.concurrency must be between 1 and 16")
		}
		if c.Ingest.UnmappedLimit < 1 {
			errs = append(errs, "ingest.unmapped_limit must be > 0")
		}
		errs = append(errs, c.validateData()...)
	case "project":
		errs = append(errs, c.validateData()...)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		errs = append(errs, c.validateData()...)
	case "migrate", "runs":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateData() []string {
	var errs []string
	if c.Data.Base == "" {
		errs = append(errs, "data.base is required")
	}
	if c.Data.TeamMap == "" {
		errs = append(errs, "data.team_map is required")
	}
	if c.Fetch.RatePerSec <= 0 {
		errs = append(errs, "fetch.rate_per_sec must be > 0")
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, "fetch.max_retries must be >= 0")
	}
	return errs
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
