package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kdimtricp/medannotate/internal/database"
)

type Config struct {
	App       AppConfig
	Database  database.Config
	Annotator AnnotatorConfig
}

type AppConfig struct {
	Port           string
	Environment    string
	LogFilePath    string
	MigrationsPath string
	CacheTTL       time.Duration
}

type AnnotatorConfig struct {
	StoreURL     string
	Threshold    float64
	NumSamples   int
	StoreTimeout time.Duration
	Annotator    string
	UpdateSource bool
	JournalDir   string
	LogFilePath  string
}

func (c AppConfig) Production() bool {
	return c.Environment == "production"
}

// Load reads configuration from the environment, after loading a .env file when one
// is present. Invalid numeric values fall back to their defaults.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("GO_ENV", "development"),
			LogFilePath:    getEnv("LOG_FILE_PATH", ""),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
			CacheTTL:       getEnvAsDuration("CACHE_TTL", 5*time.Second),
		},
		Database: database.Config{
			Type: getEnv("DB_TYPE", "sqlite"),
		},
		Annotator: AnnotatorConfig{
			StoreURL:     getEnv("STORE_URL", "http://localhost:8080"),
			Threshold:    getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.6),
			NumSamples:   getEnvAsInt("NUM_SAMPLES", 10),
			StoreTimeout: getEnvAsDuration("STORE_TIMEOUT", 10*time.Second),
			Annotator:    getEnv("ANNOTATOR", ""),
			UpdateSource: getEnvAsBool("UPDATE_SOURCE", false),
			JournalDir:   getEnv("JOURNAL_DIR", ""),
			LogFilePath:  getEnv("ANNOTATE_LOG_FILE", ""),
		},
	}

	if cfg.Database.Type == "postgres" {
		cfg.Database.Host = getEnv("DB_HOST", "localhost")
		cfg.Database.Port = getEnvAsInt("DB_PORT", 5432)
		cfg.Database.User = getEnv("DB_USER", "annotate")
		cfg.Database.Password = getEnv("DB_PASSWORD", "annotate_dev")
		cfg.Database.Name = getEnv("DB_NAME", "annotate")
	} else {
		cfg.Database.SQLitePath = getEnv("DB_PATH", "./annotate.db")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
