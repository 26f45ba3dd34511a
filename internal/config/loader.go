package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/example/crew-scheduler/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. SCHEDULER_HTTP_PORT.
const EnvPrefix = "SCHEDULER"

// Config captures the scheduler's runtime settings.
type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	DB         DBConfig         `mapstructure:"db"`
	Log        LogConfig        `mapstructure:"log"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
}

type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is the listen address for Port on all interfaces.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SchedulingConfig holds the engine tunables.
type SchedulingConfig struct {
	GridGranularity time.Duration `mapstructure:"grid_granularity"`
	UpcomingWindow  time.Duration `mapstructure:"upcoming_window"`
	AuditCacheTTL   time.Duration `mapstructure:"audit_cache_ttl"`
}

// setDefaults registers the values used when neither file nor environment set a key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.rate_limit", 10.0)
	v.SetDefault("http.rate_burst", 20)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("http.shutdown_timeout", "10s")

	v.SetDefault("db.dsn", "file:scheduler.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("scheduling.grid_granularity", "30m")
	v.SetDefault("scheduling.upcoming_window", "1h")
	v.SetDefault("scheduling.audit_cache_ttl", "30s")
}

// Load reads configuration with precedence environment > file > defaults.
// An explicit path must exist; with an empty path scheduler.yaml is looked up
// in the working directory and ./config, and its absence is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scheduler")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var invalid []string

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		invalid = append(invalid, "http.port must be between 1 and 65535")
	}
	if c.HTTP.RateLimit < 0 {
		invalid = append(invalid, "http.rate_limit must not be negative")
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.RateBurst <= 0 {
		invalid = append(invalid, "http.rate_burst must be positive when rate limiting is enabled")
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		invalid = append(invalid, "db.dsn is required")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		invalid = append(invalid, "log.level must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		invalid = append(invalid, "log.format must be json or text")
	}
	if c.Scheduling.GridGranularity <= 0 {
		invalid = append(invalid, "scheduling.grid_granularity must be positive")
	}
	if c.Scheduling.UpcomingWindow <= 0 {
		invalid = append(invalid, "scheduling.upcoming_window must be positive")
	}
	if c.Scheduling.AuditCacheTTL <= 0 {
		invalid = append(invalid, "scheduling.audit_cache_ttl must be positive")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, "; "))
	}
	return nil
}
