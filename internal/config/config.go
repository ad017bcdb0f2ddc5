package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
// The same struct serves both binaries: attendctl reads the client half,
// demoserver reads the server half.
type App struct {
	Env string

	// Console (attendctl)
	APIBaseURL     string
	RequestTimeout time.Duration
	SessionPath    string
	JPEGQuality    int
	RevealInterval time.Duration
	ResetDelay     time.Duration

	// Demo backend (demoserver)
	HTTPPort        string
	DatabaseURL     string
	JWTIssuer       string
	JWTSigningKey   string
	AccessTTL       time.Duration
	RateLimitPerMin int
}

// Load returns application config populated from environment variables with
// sensible defaults. A .env file in the working directory is honored when present.
func Load() App {
	_ = godotenv.Load()

	return App{
		Env:             getEnv("APP_ENV", "dev"),
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8082"),
		RequestTimeout:  durationEnv("REQUEST_TIMEOUT", 30*time.Second),
		SessionPath:     getEnv("SESSION_PATH", defaultSessionPath()),
		JPEGQuality:     intEnv("JPEG_QUALITY", 90),
		RevealInterval:  durationEnv("REVEAL_INTERVAL", 400*time.Millisecond),
		ResetDelay:      durationEnv("RESET_DELAY", 4*time.Second),
		HTTPPort:        getEnv("HTTP_PORT", "8082"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTIssuer:       getEnv("JWT_ISSUER", "attendboard-demo"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:       durationEnv("ACCESS_TTL", 12*time.Hour),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
	}
}

// defaultSessionPath keeps the persisted session with other per-user config.
func defaultSessionPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "attendboard", "session.json")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
