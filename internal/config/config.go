package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Config is the whole service configuration, resolved once at startup and
// passed down explicitly. Nothing reads the environment mid-request.
type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// Redis quiz cache; disabled when Addr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	QuizCacheTTL  time.Duration

	AuthHMACSecret string
	TokenTTL       time.Duration

	SiteID string // tag on event-log rows

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		Mode:     mode,
		HTTPAddr: addr,
		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		QuizCacheTTL:  envDuration("QUIZ_CACHE_TTL", 5*time.Minute),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTL:       envDuration("TOKEN_TTL", 8*time.Hour),

		SiteID: envOr("SITE_ID", "local"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://app.brightpath.example.com"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
	}
}

// CORSOrigins picks the origin list matching the mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
