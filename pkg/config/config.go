package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store backend identifiers accepted by STORE_PRIMARY / STORE_FALLBACK.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Store         StoreConfig
	Notifications NotificationsConfig
	Reports       ReportsConfig
	Stats         StatsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig selects the primary and fallback persistence backends.
type StoreConfig struct {
	Primary       string
	Fallback      string
	Timeout       time.Duration
	ProbeInterval time.Duration
	ProbeJitter   time.Duration
}

// NotificationsConfig tunes the notification dispatcher.
type NotificationsConfig struct {
	Cap           int
	DefaultCampus string
	PollInterval  time.Duration
	PreviewLength int
}

// ReportsConfig holds report lifecycle switches.
type ReportsConfig struct {
	GuardFinalized bool
	ExportEnabled  bool
}

// StatsConfig governs the cached dashboard summary.
type StatsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:      v.GetString("REDIS_HOST"),
		Port:      v.GetInt("REDIS_PORT"),
		Password:  v.GetString("REDIS_PASSWORD"),
		DB:        v.GetInt("REDIS_DB"),
		KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
		TTL:    parseDuration(v.GetString("JWT_TTL"), 8*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Store = StoreConfig{
		Primary:       strings.ToLower(v.GetString("STORE_PRIMARY")),
		Fallback:      strings.ToLower(v.GetString("STORE_FALLBACK")),
		Timeout:       parseDuration(v.GetString("STORE_TIMEOUT"), 3*time.Second),
		ProbeInterval: parseDuration(v.GetString("STORE_PROBE_INTERVAL"), 15*time.Second),
		ProbeJitter:   parseDuration(v.GetString("STORE_PROBE_JITTER"), 2*time.Second),
	}

	notifCap := v.GetInt("NOTIFICATIONS_CAP")
	if notifCap <= 0 {
		notifCap = 50
	}
	preview := v.GetInt("NOTIFICATIONS_PREVIEW_LENGTH")
	if preview <= 0 {
		preview = 50
	}
	cfg.Notifications = NotificationsConfig{
		Cap:           notifCap,
		DefaultCampus: strings.ToUpper(v.GetString("NOTIFICATIONS_DEFAULT_CAMPUS")),
		PollInterval:  parseDuration(v.GetString("NOTIFICATIONS_POLL_INTERVAL"), 30*time.Second),
		PreviewLength: preview,
	}

	cfg.Reports = ReportsConfig{
		GuardFinalized: v.GetBool("REPORTS_GUARD_FINALIZED"),
		ExportEnabled:  v.GetBool("ENABLE_EXPORT"),
	}

	cfg.Stats = StatsConfig{
		CacheEnabled: v.GetBool("ENABLE_STATS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("STATS_CACHE_TTL"), 2*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academic_warning")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "aw")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_TTL", "8h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORE_PRIMARY", StorePostgres)
	v.SetDefault("STORE_FALLBACK", StoreRedis)
	v.SetDefault("STORE_TIMEOUT", "3s")
	v.SetDefault("STORE_PROBE_INTERVAL", "15s")
	v.SetDefault("STORE_PROBE_JITTER", "2s")

	v.SetDefault("NOTIFICATIONS_CAP", 50)
	v.SetDefault("NOTIFICATIONS_DEFAULT_CAMPUS", "HN")
	v.SetDefault("NOTIFICATIONS_POLL_INTERVAL", "30s")
	v.SetDefault("NOTIFICATIONS_PREVIEW_LENGTH", 50)

	v.SetDefault("REPORTS_GUARD_FINALIZED", true)
	v.SetDefault("ENABLE_EXPORT", true)

	v.SetDefault("ENABLE_STATS_CACHE", false)
	v.SetDefault("STATS_CACHE_TTL", "2m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
