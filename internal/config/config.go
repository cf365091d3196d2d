package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint string

	SeedDemo bool

	Social SocialConfig
}

// SocialConfig holds every tunable of the social metrics subsystem.
// Thresholds are configuration on purpose; product owns the exact values.
type SocialConfig struct {
	SnapshotTTL  time.Duration
	FetchTimeout time.Duration
	UserAgent    string

	FetchRate  float64
	FetchBurst int

	MilestoneLadder    []int64
	GrowthPct          float64
	DropPct            float64
	EngagementDeltaPts float64

	YouTubeAPIKey      string
	SoundCloudClientID string

	WorkerEnabled      bool
	WorkerPollInterval time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "encore"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "encore"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		OTLPEndpoint: strings.TrimSpace(getenv("OTLP_ENDPOINT", "")),

		SeedDemo: getenvBool("SEED_DEMO_PROFILE", false),

		Social: SocialConfig{
			SnapshotTTL:  getenvDuration("SOCIAL_SNAPSHOT_TTL", 24*time.Hour),
			FetchTimeout: getenvDuration("SOCIAL_FETCH_TIMEOUT", 15*time.Second),
			UserAgent: getenv("SOCIAL_FETCH_USER_AGENT",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),
			FetchRate:          getenvFloat("SOCIAL_FETCH_RATE", 1),
			FetchBurst:         getenvInt("SOCIAL_FETCH_BURST", 3),
			MilestoneLadder:    getenvLadder("SOCIAL_MILESTONES", []int64{1000, 10000, 100000, 1000000}),
			GrowthPct:          getenvFloat("SOCIAL_GROWTH_PCT", 5),
			DropPct:            getenvFloat("SOCIAL_DROP_PCT", 5),
			EngagementDeltaPts: getenvFloat("SOCIAL_ENGAGEMENT_DELTA_PTS", 1),
			YouTubeAPIKey:      strings.TrimSpace(getenv("YOUTUBE_API_KEY", "")),
			SoundCloudClientID: strings.TrimSpace(getenv("SOUNDCLOUD_CLIENT_ID", "")),
			WorkerEnabled:      getenvBool("SOCIAL_REFRESH_WORKER_ENABLED", true),
			WorkerPollInterval: getenvDuration("SOCIAL_REFRESH_WORKER_INTERVAL", 15*time.Minute),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getenvLadder(key string, def []int64) []int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := strconv.ParseInt(part, 10, 64)
		if err != nil || parsed <= 0 {
			continue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return def
	}
	return out
}
