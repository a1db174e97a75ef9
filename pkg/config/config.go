package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Redis      RedisConfig
	Reco       RecoConfig
	Experiment ExperimentConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port         string
	AllowOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

// RedisConfig is optional; when disabled, click de-duplication only uses
// the database.
type RedisConfig struct {
	Enabled       bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type RecoConfig struct {
	DefaultLimit   int
	MaxLimit       int
	CandidateLimit int
	Locale         string
}

type ExperimentConfig struct {
	// TokenKey is the AES key for sticky variant tokens. Empty disables
	// tokens.
	TokenKey      string
	DefaultSplit  int
	DedupWindow   time.Duration
	CookieName    string
	SessionCookie string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisEnabled, err := getEnvBool("REDIS_ENABLED", false)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	defaultLimit, err := getEnvInt("RECO_DEFAULT_LIMIT", 5)
	if err != nil {
		return nil, err
	}
	maxLimit, err := getEnvInt("RECO_MAX_LIMIT", 50)
	if err != nil {
		return nil, err
	}
	candidateLimit, err := getEnvInt("RECO_CANDIDATE_LIMIT", 200)
	if err != nil {
		return nil, err
	}
	split, err := getEnvInt("EXPERIMENT_DEFAULT_SPLIT", 50)
	if err != nil {
		return nil, err
	}
	dedup, err := time.ParseDuration(getEnv("TELEMETRY_DEDUP_WINDOW", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEMETRY_DEDUP_WINDOW: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Event Recommendation API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			AllowOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "event_reco"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			Enabled:       redisEnabled,
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Reco: RecoConfig{
			DefaultLimit:   defaultLimit,
			MaxLimit:       maxLimit,
			CandidateLimit: candidateLimit,
			Locale:         getEnv("RECO_LOCALE", "ja"),
		},
		Experiment: ExperimentConfig{
			TokenKey:      getEnv("EXPERIMENT_TOKEN_KEY", ""),
			DefaultSplit:  split,
			DedupWindow:   dedup,
			CookieName:    getEnv("EXPERIMENT_COOKIE_NAME", "reco_exp"),
			SessionCookie: getEnv("SESSION_COOKIE_NAME", "reco_sid"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("missing jwt secret")
	}
	if c.Database.Password == "" {
		return errors.New("missing database password")
	}
	switch len(c.Experiment.TokenKey) {
	case 0, 16, 24, 32:
	default:
		return errors.New("EXPERIMENT_TOKEN_KEY must be 16, 24 or 32 bytes")
	}
	if c.Experiment.DefaultSplit < 1 || c.Experiment.DefaultSplit > 99 {
		return errors.New("EXPERIMENT_DEFAULT_SPLIT must be within 1..99")
	}
	if c.Experiment.DedupWindow <= 0 {
		return errors.New("TELEMETRY_DEDUP_WINDOW must be positive")
	}
	if c.Reco.DefaultLimit <= 0 || c.Reco.MaxLimit < c.Reco.DefaultLimit {
		return errors.New("RECO_DEFAULT_LIMIT must be positive and not above RECO_MAX_LIMIT")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
