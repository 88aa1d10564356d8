package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Queue       QueueConfig      `mapstructure:"queue"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Store       StoreConfig      `mapstructure:"store"`
	Nutrition   NutritionConfig  `mapstructure:"nutrition"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// OpenRouterConfig configures the recipe and classification model.
type OpenRouterConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig configures the in-process model response cache.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig bounds concurrent model calls.
type QueueConfig struct {
	MaxSize int `mapstructure:"max_size"`
	Workers int `mapstructure:"workers"`
}

// RedisConfig configures the shared recipe cache.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StoreConfig selects and configures the nutrition reference store.
type StoreConfig struct {
	Driver          string        `mapstructure:"driver"` // mongo, sqlite or memory
	MongoURI        string        `mapstructure:"mongo_uri"`
	MongoDatabase   string        `mapstructure:"mongo_database"`
	MongoCollection string        `mapstructure:"mongo_collection"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	SeedFile        string        `mapstructure:"seed_file"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	NamesRefresh    string        `mapstructure:"names_refresh"` // cron spec, empty disables
}

// NutritionConfig tunes the engine.
type NutritionConfig struct {
	TablesFile          string  `mapstructure:"tables_file"`
	DefaultWeightGrams  float64 `mapstructure:"default_weight_grams"`
	FuzzyThreshold      float64 `mapstructure:"fuzzy_threshold"`
	ChainFuzzyThreshold float64 `mapstructure:"chain_fuzzy_threshold"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// LoadConfig reads .env and APP_* environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"openrouter.api_key":    "OPENROUTER_API_KEY",
		"openrouter.model":      "OPENROUTER_MODEL",
		"openrouter.base_url":   "OPENROUTER_BASE_URL",
		"openrouter.max_tokens": "MODEL_MAX_TOKENS",
		"cache.enabled":         "CACHE_ENABLED",
		"redis.enabled":         "REDIS_ENABLED",
		"redis.addr":            "REDIS_ADDR",
		"redis.password":        "REDIS_PASSWORD",
		"store.driver":          "STORE_DRIVER",
		"store.mongo_uri":       "MONGO_URI",
		"store.sqlite_path":     "SQLITE_PATH",
		"rate_limit.enabled":    "RATE_LIMIT_ENABLED",
		"rate_limit.requests":   "RATE_LIMIT_REQUESTS",
		"rate_limit.window":     "RATE_LIMIT_WINDOW",
		"dedup_window":          "DEDUP_WINDOW",
		"log_level":             "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger is not initialised yet
	fmt.Println("Loading configuration",
		"store_driver:", v.GetString("store.driver"),
		"openrouter_api_key:", maskAPIKey(v.GetString("openrouter.api_key")),
		"openrouter_model:", v.GetString("openrouter.model"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// a key alone turns the model on
	if config.OpenRouter.APIKey != "" {
		config.OpenRouter.Enabled = true
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey keeps the first and last four characters.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "nutrition-calculator")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "75s")
	v.SetDefault("server.max_body_bytes", 64*1024)

	v.SetDefault("openrouter.enabled", false)
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.max_tokens", 1000)
	v.SetDefault("openrouter.temperature", 0.3)
	v.SetDefault("openrouter.timeout", "60s")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("queue.max_size", 100)
	v.SetDefault("queue.workers", 4)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "168h")

	v.SetDefault("store.driver", StoreSQLite)
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", "Food_Collection")
	v.SetDefault("store.mongo_collection", "nutrition_source")
	v.SetDefault("store.sqlite_path", "data/nutrition.db")
	v.SetDefault("store.connect_timeout", "10s")
	v.SetDefault("store.query_timeout", "2s")
	v.SetDefault("store.names_refresh", "@every 30m")

	v.SetDefault("nutrition.default_weight_grams", 50)
	v.SetDefault("nutrition.fuzzy_threshold", 70)
	v.SetDefault("nutrition.chain_fuzzy_threshold", 80)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.Queue.MaxSize <= 0 || config.Queue.Workers <= 0 {
		return fmt.Errorf("queue size and workers must be positive")
	}

	switch config.Store.Driver {
	case StoreMongo:
		if config.Store.MongoURI == "" {
			return fmt.Errorf("store.mongo_uri is required for the mongo driver")
		}
	case StoreSQLite:
		if config.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}
	if config.Store.QueryTimeout <= 0 {
		return fmt.Errorf("invalid store query timeout")
	}

	if config.Redis.Enabled && config.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}

	n := config.Nutrition
	if n.DefaultWeightGrams <= 0 {
		return fmt.Errorf("invalid nutrition default weight")
	}
	if n.FuzzyThreshold < 0 || n.FuzzyThreshold > 100 || n.ChainFuzzyThreshold < 0 || n.ChainFuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy thresholds must be within 0-100")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
