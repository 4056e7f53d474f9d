package config

import (
	"errors"
	"fmt"
	"freight-route-engine/internal/services"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	ORS      ORSConfig      `mapstructure:"ors"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// One of "sqlite", "postgres" or "memory".
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Path     string `mapstructure:"path"`
	SeedPath string `mapstructure:"seed_path"`
}

type RedisConfig struct {
	// Empty disables the count cache.
	URL      string        `mapstructure:"url"`
	CountTTL time.Duration `mapstructure:"count_ttl"`
}

type ORSConfig struct {
	// Empty selects the mock distance provider.
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Profile           string  `mapstructure:"profile"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type EngineConfig struct {
	DefaultRate    float64 `mapstructure:"default_rate"`
	AcceptableRate float64 `mapstructure:"acceptable_rate"`
	HighDemandRate float64 `mapstructure:"high_demand_rate"`
	LookbackDays   int     `mapstructure:"lookback_days"`
	BestLoadsLimit int     `mapstructure:"best_loads_limit"`
	MaxLegs        int     `mapstructure:"max_legs"`
	MaxLegsLimit   int     `mapstructure:"max_legs_limit"`
	MaxWindowDays  int     `mapstructure:"max_window_days"`
	RiskHighBelow  int     `mapstructure:"risk_high_below"`
	RiskMediumMax  int     `mapstructure:"risk_medium_max"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Services converts the engine section into the engine's own configuration.
func (e EngineConfig) Services() services.EngineConfig {
	return services.EngineConfig{
		LookbackDays:   e.LookbackDays,
		BestLoadsLimit: e.BestLoadsLimit,
		MaxLegs:        e.MaxLegs,
		MaxLegsLimit:   e.MaxLegsLimit,
		MaxWindowDays:  e.MaxWindowDays,
		AcceptableRate: e.AcceptableRate,
		HighDemandRate: e.HighDemandRate,
		RiskHighBelow:  e.RiskHighBelow,
		RiskMediumMax:  e.RiskMediumMax,
	}
}

// Load reads .env, then an optional config.yaml, then environment overrides
// (SERVER_PORT, DATABASE_DRIVER, ORS_API_KEY, ...).
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return load(v)
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := services.DefaultEngineConfig()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.path", "freight.db")
	v.SetDefault("database.seed_path", "data/seeds/offers.yaml")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.count_ttl", 30*time.Second)

	v.SetDefault("ors.api_key", "")
	v.SetDefault("ors.base_url", "https://api.openrouteservice.org")
	v.SetDefault("ors.profile", "driving-hgv")
	v.SetDefault("ors.requests_per_second", 0.6)

	v.SetDefault("engine.default_rate", 1.7)
	v.SetDefault("engine.acceptable_rate", defaults.AcceptableRate)
	v.SetDefault("engine.high_demand_rate", defaults.HighDemandRate)
	v.SetDefault("engine.lookback_days", defaults.LookbackDays)
	v.SetDefault("engine.best_loads_limit", defaults.BestLoadsLimit)
	v.SetDefault("engine.max_legs", defaults.MaxLegs)
	v.SetDefault("engine.max_legs_limit", defaults.MaxLegsLimit)
	v.SetDefault("engine.max_window_days", defaults.MaxWindowDays)
	v.SetDefault("engine.risk_high_below", defaults.RiskHighBelow)
	v.SetDefault("engine.risk_medium_max", defaults.RiskMediumMax)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Database.Path) == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of sqlite, postgres, memory", c.Database.Driver))
	}

	e := c.Engine
	if e.DefaultRate <= 0 || e.AcceptableRate <= 0 || e.HighDemandRate <= 0 {
		errs = append(errs, errors.New("engine rates must be positive"))
	}
	if e.HighDemandRate < e.AcceptableRate {
		errs = append(errs, errors.New("engine.high_demand_rate must not be below engine.acceptable_rate"))
	}
	if e.LookbackDays <= 0 || e.BestLoadsLimit <= 0 || e.MaxLegs <= 0 {
		errs = append(errs, errors.New("engine lookback_days, best_loads_limit and max_legs must be positive"))
	}
	if e.MaxLegsLimit < e.MaxLegs {
		errs = append(errs, errors.New("engine.max_legs_limit must be at least engine.max_legs"))
	}
	if e.MaxWindowDays < e.LookbackDays {
		errs = append(errs, errors.New("engine.max_window_days must be at least engine.lookback_days"))
	}
	if e.RiskHighBelow < 0 || e.RiskMediumMax < e.RiskHighBelow {
		errs = append(errs, errors.New("engine.risk_medium_max must be at least engine.risk_high_below"))
	}
	if c.ORS.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("ors.requests_per_second must not be negative"))
	}

	return errors.Join(errs...)
}

// Get returns the environment variable key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
