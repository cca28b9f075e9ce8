package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // zone database for images without one

	"gopkg.in/yaml.v3"

	"github.com/jengzang/periodic-risk-go/internal/circular"
	"github.com/jengzang/periodic-risk-go/internal/training"
)

// Config 应用配置
type Config struct {
	Port      string `yaml:"port"`
	DBPath    string `yaml:"db_path"`
	JWTSecret string `yaml:"jwt_secret"`
	Timezone  string `yaml:"timezone"` // IANA name the domains are read in

	Log       LogConfig       `yaml:"log"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Training  TrainingConfig  `yaml:"training"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// RedisConfig configures the optional profile cache; empty Addr disables it
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Requests int           `yaml:"requests"` // Maximum requests per window
	Window   time.Duration `yaml:"window"`
}

// TrainingConfig holds the kernel, bandwidth and scoring parameters
type TrainingConfig struct {
	Points             int                       `yaml:"points"`
	Bandwidth          circular.BandwidthOptions `yaml:"bandwidth"`
	RequireConvergence bool                      `yaml:"require_convergence"`
	Workers            int                       `yaml:"workers"`
	MinConfidence      float64                   `yaml:"min_confidence"`
	Weights            map[string]float64        `yaml:"weights"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Port:      ":8080",
		DBPath:    "./data/periodic.db",
		JWTSecret: "your-secret-key-change-in-production",
		Timezone:  "UTC",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Redis: RedisConfig{
			TTL: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
		Training: TrainingConfig{
			Points:        circular.DefaultKernelPoints,
			Bandwidth:     circular.DefaultBandwidthOptions(),
			Workers:       4,
			MinConfidence: 0.85,
			Weights: map[string]float64{
				string(circular.Hour):       0.5,
				string(circular.DayOfWeek):  0.2,
				string(circular.DayOfMonth): 0.3,
			},
		},
	}
}

// Load 加载配置: defaults, then the YAML file named by CONFIG_FILE, then
// environment variables
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	// weights in the file replace the defaults as a whole
	weights := c.Training.Weights
	c.Training.Weights = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.Training.Weights == nil {
		c.Training.Weights = weights
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("PORT", &c.Port)
	str("DB_PATH", &c.DBPath)
	str("JWT_SECRET", &c.JWTSecret)
	str("TIMEZONE", &c.Timezone)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)

	return errors.Join(
		num("REDIS_DB", &c.Redis.DB),
		dur("PROFILE_CACHE_TTL", &c.Redis.TTL),
		num("RATE_LIMIT", &c.RateLimit.Requests),
		dur("RATE_WINDOW", &c.RateLimit.Window),
		num("TRAIN_WORKERS", &c.Training.Workers),
	)
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is empty")
	}
	if c.DBPath == "" {
		return errors.New("db_path is empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid rate limit %d per %s", c.RateLimit.Requests, c.RateLimit.Window)
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("invalid profile cache ttl %s", c.Redis.TTL)
	}
	return c.Training.Validate()
}

// Validate checks the training block
func (t TrainingConfig) Validate() error {
	if t.Points < 2 {
		return fmt.Errorf("training points must be at least 2, got %d", t.Points)
	}
	if err := t.Bandwidth.Validate(); err != nil {
		return err
	}
	if t.Workers < 1 {
		return fmt.Errorf("training workers must be positive, got %d", t.Workers)
	}
	if t.MinConfidence < 0 || t.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0, 1], got %g", t.MinConfidence)
	}

	total := 0.0
	for name, w := range t.Weights {
		if _, err := circular.ParseDomain(name); err != nil {
			return fmt.Errorf("weight for %w", err)
		}
		if w < 0 {
			return fmt.Errorf("weight for %s is negative", name)
		}
		total += w
	}
	if total == 0 {
		return errors.New("at least one domain weight must be positive")
	}
	return nil
}

// Location returns the configured time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TrainerConfig converts the training block for training.NewTrainer
func (c *Config) TrainerConfig() training.Config {
	return training.Config{
		Points:             c.Training.Points,
		Bandwidth:          c.Training.Bandwidth,
		RequireConvergence: c.Training.RequireConvergence,
		Workers:            c.Training.Workers,
		Location:           c.Location(),
	}
}

// ScoringConfig converts the training block for training.NewScorer
func (c *Config) ScoringConfig() training.ScoringConfig {
	weights := make(map[circular.Domain]float64, len(c.Training.Weights))
	for name, w := range c.Training.Weights {
		weights[circular.Domain(name)] = w
	}
	return training.ScoringConfig{
		MinConfidence: c.Training.MinConfidence,
		Weights:       weights,
		Location:      c.Location(),
	}
}

// CacheEnabled reports whether a Redis address is configured
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}
