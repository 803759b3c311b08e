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

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	LookupCache LookupCacheConfig `mapstructure:"lookup_cache"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Search      SearchConfig      `mapstructure:"search"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
	LogFile     string            `mapstructure:"log_file"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// IsProduction 是否為正式環境
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig 資料庫設定
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite | postgres
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig 收藏快取設定
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	FavoritesTTL time.Duration `mapstructure:"favorites_ttl"`
}

// LookupCacheConfig 營養查詢的行程內快取設定
type LookupCacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ProviderConfig 單一外部供應商設定
type ProviderConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	AppID   string        `mapstructure:"app_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ProvidersConfig 外部供應商設定
type ProvidersConfig struct {
	MealDB        ProviderConfig `mapstructure:"mealdb"`
	Edamam        ProviderConfig `mapstructure:"edamam"`
	USDA          ProviderConfig `mapstructure:"usda"`
	Ninjas        ProviderConfig `mapstructure:"ninjas"`
	OpenFoodFacts ProviderConfig `mapstructure:"openfoodfacts"`
}

// AuthConfig 身份驗證設定
type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	AdminEmail string `mapstructure:"admin_email"`
}

// SearchConfig 搜尋設定
type SearchConfig struct {
	DefaultNumber int `mapstructure:"default_number"`
	MaxNumber     int `mapstructure:"max_number"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// MetricsConfig Prometheus 設定
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 為可選
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定常用環境變量
	bindings := map[string]string{
		"database.driver":                  "DB_DRIVER",
		"database.dsn":                     "DATABASE_URL",
		"redis.enabled":                    "REDIS_ENABLED",
		"redis.addr":                       "REDIS_ADDR",
		"redis.password":                   "REDIS_PASSWORD",
		"providers.edamam.app_id":          "EDAMAM_APP_ID",
		"providers.edamam.api_key":         "EDAMAM_APP_KEY",
		"providers.usda.api_key":           "USDA_API_KEY",
		"providers.ninjas.api_key":         "API_NINJAS_KEY",
		"providers.mealdb.api_key":         "MEALDB_API_KEY",
		"auth.jwt_secret":                  "JWT_SECRET",
		"auth.admin_email":                 "ADMIN_EMAIL",
		"rate_limit.enabled":               "RATE_LIMIT_ENABLED",
		"rate_limit.requests":              "RATE_LIMIT_REQUESTS",
		"rate_limit.window":                "RATE_LIMIT_WINDOW",
		"dedup_window":                     "DEDUP_WINDOW",
		"log_level":                        "LOG_LEVEL",
		"log_file":                         "LOG_FILE",
		"server.port":                      "PORT",
		"app.env":                          "APP_ENV",
		"providers.openfoodfacts.base_url": "OPENFOODFACTS_BASE_URL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskSecret 遮罩金鑰，只顯示前後各 4 個字符
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-hub")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "45s")
	v.SetDefault("server.max_body_bytes", 2<<20) // 2MB

	// 資料庫設定
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:recipe-hub.db?_foreign_keys=1")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// Redis 設定
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.favorites_ttl", "720h")

	// 查詢快取設定
	v.SetDefault("lookup_cache.enabled", true)
	v.SetDefault("lookup_cache.max_size", 1000)
	v.SetDefault("lookup_cache.ttl", "6h")
	v.SetDefault("lookup_cache.cleanup_interval", "10m")

	// 外部供應商設定
	v.SetDefault("providers.mealdb.enabled", true)
	v.SetDefault("providers.mealdb.base_url", "https://www.themealdb.com/api/json/v1")
	v.SetDefault("providers.mealdb.api_key", "1")
	v.SetDefault("providers.mealdb.timeout", "10s")
	v.SetDefault("providers.edamam.enabled", true)
	v.SetDefault("providers.edamam.base_url", "https://api.edamam.com")
	v.SetDefault("providers.edamam.timeout", "10s")
	v.SetDefault("providers.usda.enabled", true)
	v.SetDefault("providers.usda.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("providers.usda.timeout", "10s")
	v.SetDefault("providers.ninjas.enabled", true)
	v.SetDefault("providers.ninjas.base_url", "https://api.api-ninjas.com")
	v.SetDefault("providers.ninjas.timeout", "10s")
	v.SetDefault("providers.openfoodfacts.enabled", true)
	v.SetDefault("providers.openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("providers.openfoodfacts.timeout", "10s")

	// 搜尋設定
	v.SetDefault("search.default_number", 20)
	v.SetDefault("search.max_number", 100)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 120)
	v.SetDefault("rate_limit.window", "1m")

	// 指標設定
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("dedup_window", "2s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "logs/app.log")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}
	if config.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	if config.Redis.Enabled && config.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when redis is enabled")
	}

	if config.Search.DefaultNumber <= 0 {
		return fmt.Errorf("invalid search default number")
	}
	if config.Search.MaxNumber < config.Search.DefaultNumber {
		return fmt.Errorf("search max number must be >= default number")
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 {
			return fmt.Errorf("invalid rate limit requests")
		}
		if config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit window")
		}
	}

	if config.App.IsProduction() && config.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required in production")
	}

	return nil
}
