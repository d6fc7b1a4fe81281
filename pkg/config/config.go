package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	GitHub     GitHubConfig
	Classifier ClassifierConfig
	Budget     BudgetConfig
	Workers    WorkersConfig
	Model      ModelConfig
	Refresh    RefreshConfig
}

type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
	APIToken     string
	MaxBatchSize int
}

type DatabaseConfig struct {
	Path string
}

type GitHubConfig struct {
	Token            string
	APIURL           string
	PerPage          int
	WaitRateLimit    bool
	MaxRateLimitWait time.Duration
	RetryAttempts    int
	RetryDelay       time.Duration
	RetryBackoff     float64
}

// ClassifierConfig holds the per-contributor stopping policy
type ClassifierConfig struct {
	MinEvents       int
	MinConfidence   float64
	MaxQueries      int
	IncludeFeatures bool
	StopMetric      string
}

// BudgetConfig holds the process-wide query admission policy
type BudgetConfig struct {
	RatePerHour int
	Burst       int
	Limit       int
}

type WorkersConfig struct {
	Classify int
}

type ModelConfig struct {
	Path string
}

// RefreshConfig controls periodic re-classification of stored contributors.
// A zero Interval disables it.
type RefreshConfig struct {
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

var AppConfig *Config

// Load loads configuration from .env file and environment variables
func Load() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	token := getEnv("GITHUB_TOKEN", "")
	defaultRate := 60
	if token != "" {
		defaultRate = 5000
	}

	AppConfig = &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 15),
			APIToken:     getEnv("API_TOKEN", ""),
			MaxBatchSize: getEnvAsInt("MAX_BATCH_SIZE", 100),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./botscope.db"),
		},
		GitHub: GitHubConfig{
			Token:            token,
			APIURL:           getEnv("GITHUB_API_URL", ""),
			PerPage:          getEnvAsInt("GITHUB_PER_PAGE", 100),
			WaitRateLimit:    getEnvAsBool("GITHUB_WAIT_RATE_LIMIT", true),
			MaxRateLimitWait: getEnvAsDuration("GITHUB_MAX_RATE_LIMIT_WAIT", time.Hour),
			RetryAttempts:    getEnvAsInt("GITHUB_RETRY_ATTEMPTS", 3),
			RetryDelay:       getEnvAsDuration("GITHUB_RETRY_DELAY", 10*time.Second),
			RetryBackoff:     getEnvAsFloat("GITHUB_RETRY_BACKOFF", 2.5),
		},
		Classifier: ClassifierConfig{
			MinEvents:       getEnvAsInt("MIN_EVENTS", 5),
			MinConfidence:   getEnvAsFloat("MIN_CONFIDENCE", 1.0),
			MaxQueries:      getEnvAsInt("MAX_QUERIES", 3),
			IncludeFeatures: getEnvAsBool("INCLUDE_FEATURES", false),
			StopMetric:      getEnv("STOP_METRIC", "confidence"),
		},
		Budget: BudgetConfig{
			RatePerHour: getEnvAsInt("QUERY_RATE_PER_HOUR", defaultRate),
			Burst:       getEnvAsInt("QUERY_BURST", 10),
			Limit:       getEnvAsInt("QUERY_LIMIT", 0),
		},
		Workers: WorkersConfig{
			Classify: getEnvAsInt("CLASSIFY_WORKERS", 4),
		},
		Model: ModelConfig{
			Path: getEnv("MODEL_PATH", "./models/bimbas.json"),
		},
		Refresh: RefreshConfig{
			Interval:  getEnvAsDuration("REFRESH_INTERVAL", 0),
			MaxAge:    getEnvAsDuration("REFRESH_MAX_AGE", 7*24*time.Hour),
			BatchSize: getEnvAsInt("REFRESH_BATCH_SIZE", 50),
		},
	}

	return nil
}

// Validate checks the classifier and budget settings for out-of-range values
func (c *Config) Validate() error {
	cl := c.Classifier
	if cl.MinEvents < 1 {
		return fmt.Errorf("min events must be at least 1, got %d", cl.MinEvents)
	}
	if cl.MinConfidence < 0 || cl.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be within [0, 1], got %v", cl.MinConfidence)
	}
	if cl.MaxQueries < 1 {
		return fmt.Errorf("max queries must be at least 1, got %d", cl.MaxQueries)
	}
	if cl.StopMetric != "confidence" && cl.StopMetric != "probability" {
		return fmt.Errorf("unknown stop metric %q", cl.StopMetric)
	}
	if c.Budget.RatePerHour < 1 {
		return fmt.Errorf("query rate must be positive, got %d", c.Budget.RatePerHour)
	}
	if c.Refresh.Interval > 0 && (c.Refresh.MaxAge <= 0 || c.Refresh.BatchSize < 1) {
		return fmt.Errorf("refresh needs a positive max age and batch size")
	}
	if c.Workers.Classify < 1 {
		return fmt.Errorf("classify workers must be at least 1, got %d", c.Workers.Classify)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
