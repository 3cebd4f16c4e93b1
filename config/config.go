package config

import (
	"os"
	"strconv"
	"strings"
)

type ConfigStruct struct {
	Options Options
	Store   StoreConfig
	Mongo   MongoConfig
	SQLite  SQLiteConfig
	Search  SearchConfig
	Sentry  SentryConfig
	Logging LoggingConfig
}

type Options struct {
	Port             string
	StaticDir        string
	CORSAllowOrigins []string
	RateLimitRPS     float64
	RateLimitBurst   int
}

type StoreConfig struct {
	Backend string // "mongo" or "sqlite"
}

type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	SearchIndex    string
	EnsureIndexes  bool
	TimeoutSeconds int
}

type SQLiteConfig struct {
	Path string
}

type SearchConfig struct {
	Mode              string // "weighted" or "boolean"
	Limit             int
	MinScore          float64
	AutocompleteLimit int
}

type SentryConfig struct {
	DSN              string
	Release          string
	Environment      string
	TracesSampleRate float64
}

type LoggingConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func (s *StoreConfig) IsSQLite() bool {
	return s.Backend == "sqlite"
}

// RateLimitEnabled reports whether /api requests are throttled.
func (o *Options) RateLimitEnabled() bool {
	return o.RateLimitRPS > 0
}

// NewConfig reads the environment. The result is passed to the components
// that need it; there is no package-level copy.
func NewConfig() *ConfigStruct {
	config := &ConfigStruct{
		Options: Options{
			Port:             getEnv("PORT", "3000"),
			StaticDir:        getEnv("STATIC_DIR", "public"),
			CORSAllowOrigins: getCORSOrigins(),
			RateLimitRPS:     getRateLimitRPS(),
			RateLimitBurst:   getIntInRange("RATE_LIMIT_BURST", 20, 1, 1000),
		},
		Store: StoreConfig{
			Backend: getBackend(),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017/bestai"),
			Database:       getEnv("MONGODB_DATABASE", "bestai"),
			Collection:     getEnv("MONGODB_COLLECTION", "best"),
			SearchIndex:    getEnv("MONGODB_SEARCH_INDEX", "default"),
			EnsureIndexes:  os.Getenv("MONGODB_ENSURE_INDEXES") == "true",
			TimeoutSeconds: getIntInRange("MONGODB_TIMEOUT_SECONDS", 10, 1, 120),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("DB_PATH", "data/bestai.db"),
		},
		Search: SearchConfig{
			Mode:              getSearchMode(),
			Limit:             getIntInRange("SEARCH_LIMIT", 100, 1, 1000),
			MinScore:          getMinScore(),
			AutocompleteLimit: getIntInRange("AUTOCOMPLETE_LIMIT", 5, 1, 20),
		},
		Sentry: SentryConfig{
			DSN:              os.Getenv("SENTRY_DSN"),
			Release:          os.Getenv("RELEASE"),
			Environment:      getEnv("SENTRY_ENVIRONMENT", "production"),
			TracesSampleRate: getSampleRate(),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "text"),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getIntInRange("LOG_MAX_SIZE_MB", 100, 1, 1024),
			MaxBackups: getIntInRange("LOG_MAX_BACKUPS", 3, 0, 100),
			MaxAgeDays: getIntInRange("LOG_MAX_AGE_DAYS", 28, 0, 365),
		},
	}

	return config
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// getIntInRange falls back to def for unparsable values and clamps the rest.
func getIntInRange(key string, def, min, max int) int {
	str := os.Getenv(key)
	if str == "" {
		return def
	}
	n, err := strconv.Atoi(str)
	if err != nil || n < 0 {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func getBackend() string {
	switch strings.ToLower(os.Getenv("STORE_BACKEND")) {
	case "sqlite":
		return "sqlite"
	default:
		return "mongo"
	}
}

func getSearchMode() string {
	switch strings.ToLower(os.Getenv("SEARCH_MODE")) {
	case "boolean", "text":
		return "boolean"
	default:
		return "weighted"
	}
}

func getMinScore() float64 {
	str := os.Getenv("SEARCH_MIN_SCORE")
	if str == "" {
		return 1.0
	}
	score, err := strconv.ParseFloat(str, 64)
	if err != nil || score < 0 {
		return 1.0
	}
	return score
}

func getRateLimitRPS() float64 {
	str := os.Getenv("RATE_LIMIT_RPS")
	if str == "" {
		return 0
	}
	rps, err := strconv.ParseFloat(str, 64)
	if err != nil || rps < 0 {
		return 0
	}
	return rps
}

func getSampleRate() float64 {
	str := os.Getenv("SENTRY_TRACES_SAMPLE_RATE")
	if str == "" {
		return 1.0
	}
	rate, err := strconv.ParseFloat(str, 64)
	if err != nil || rate < 0 {
		return 1.0
	}
	if rate > 1 {
		return 1.0
	}
	return rate
}

func getCORSOrigins() []string {
	str := os.Getenv("CORS_ALLOW_ORIGINS")
	if str == "" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(str, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
