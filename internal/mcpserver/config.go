package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/erraggy/oasprep/fetcher"
	"github.com/erraggy/oasprep/transform"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Transform tool defaults.
	ServerURL string
	Parameter string
	NullStyle transform.NullStyle
	Dangling  transform.DanglingPolicy

	// Fetch settings.
	FetchTimeout    time.Duration
	AllowPrivateIPs bool

	// Cache settings.
	CacheEnabled bool
	CacheMaxSize int
	CacheTTL     time.Duration

	// Limits.
	MaxInlineSize int64
	FixLimit      int
	MaxLimit      int
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from OASPREP_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		ServerURL:       envString("OASPREP_SERVER_URL", transform.DefaultServerURL),
		Parameter:       envString("OASPREP_PARAMETER", transform.DefaultPathParameter),
		NullStyle:       envNullStyle("OASPREP_NULL_STYLE"),
		Dangling:        envDangling("OASPREP_DANGLING"),
		FetchTimeout:    envDuration("OASPREP_FETCH_TIMEOUT", fetcher.DefaultTimeout),
		AllowPrivateIPs: envBool("OASPREP_ALLOW_PRIVATE_IPS", false),
		CacheEnabled:    envBool("OASPREP_CACHE_ENABLED", true),
		CacheMaxSize:    envInt("OASPREP_CACHE_MAX_SIZE", 4),
		CacheTTL:        envDuration("OASPREP_CACHE_TTL", 5*time.Minute),
		MaxInlineSize:   int64(envInt("OASPREP_MAX_INLINE_SIZE", 10*1024*1024)),
		FixLimit:        envInt("OASPREP_FIX_LIMIT", 100),
		MaxLimit:        envInt("OASPREP_MAX_LIMIT", 1000),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func envNullStyle(key string) transform.NullStyle {
	v := os.Getenv(key)
	style, err := transform.ParseNullStyle(v)
	if err != nil {
		slog.Warn("invalid null style env var, using auto", "key", key, "value", v)
		return transform.NullStyleAuto
	}
	return style
}

func envDangling(key string) transform.DanglingPolicy {
	v := os.Getenv(key)
	policy, err := transform.ParseDanglingPolicy(v)
	if err != nil {
		slog.Warn("invalid dangling policy env var, using error", "key", key, "value", v)
		return transform.DanglingError
	}
	return policy
}
