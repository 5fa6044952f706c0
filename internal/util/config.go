package util

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	EnvProduction = "production"

	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second

	defaultAccessTTL  = 24 * time.Hour
	defaultSessionTTL = 7 * 24 * time.Hour

	defaultAPIRateLimit  = 100
	defaultAuthRateLimit = 10
	defaultRateWindow    = 15 * time.Minute

	RefreshTokenLength = 40
	CSRFTokenLength    = 32
	JWTLeeWay          = 5 * time.Second
)

type ServerConfig struct {
	ServerAddr      string
	Env             string
	CORSOrigin      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	return &ServerConfig{
		ServerAddr:      addr,
		Env:             os.Getenv("APP_ENV"),
		CORSOrigin:      os.Getenv("CORS_ORIGIN"),
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
	}
}

func (c *ServerConfig) IsProduction() bool {
	return c.Env == EnvProduction
}

type TokenConfig struct {
	JwtSecretKey []byte
	AccessTTL    time.Duration
	SessionTTL   time.Duration
}

// NewTokenConfig refuses to start without a signing secret: running with a
// default or guessable secret would make every issued token forgeable.
func NewTokenConfig() *TokenConfig {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	return &TokenConfig{
		JwtSecretKey: []byte(secret),
		AccessTTL:    parseDurationOrDefault("ACCESS_TOKEN_TTL", defaultAccessTTL),
		SessionTTL:   parseDurationOrDefault("SESSION_TTL", defaultSessionTTL),
	}
}

// RateLimitConfig carries the per-mount thresholds: general API routes get
// the loose limit, authentication routes the strict one. Both share a window.
type RateLimitConfig struct {
	APILimit  int
	AuthLimit int
	Window    time.Duration
}

func NewRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		APILimit:  parseIntOrDefault("RATE_LIMIT_API", defaultAPIRateLimit),
		AuthLimit: parseIntOrDefault("RATE_LIMIT_AUTH", defaultAuthRateLimit),
		Window:    parseDurationOrDefault("RATE_LIMIT_WINDOW", defaultRateWindow),
	}
}

func parseIntOrDefault(varName string, def int) int {
	if v := os.Getenv(varName); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Invalid integer in %s: %s, using default %d", varName, v, def)
	}
	return def
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}
