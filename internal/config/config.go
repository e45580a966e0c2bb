package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8743"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Deployment layout
	DeployDir      string        // directory holding one manifest per deployed version
	ManifestSuffix string        // manifest filename suffix, file = <versionId>-<suffix>
	ServicePrefix  string        // container naming convention prefix (<prefix>-<versionId>)
	ServiceName    string        // compose service whose router rule is managed
	RootDomain     string        // default root domain for serve/status (rollback takes it as an argument)
	ComposeBin     string        // binary invoked for "compose ... up" (ex: docker)
	ApplyTimeout   time.Duration // bound on one redeploy apply (default: 2m)

	RefreshInterval time.Duration // serve mode: interval between state refreshes (default: 30s)
	JournalHistory  int           // number of run reports kept in the journal (default: 50)

	// Redis (journal backend; empty addr disables the journal)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateLimitPerMin int // rollback/refresh trigger budget per IP per minute
	RateLimitBurst  int // burst allowance on top of the refill rate
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("REWIND_LISTEN_PORT", ":8743"),
		ShutdownTimeout: mustDuration("REWIND_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("REWIND_LOG_LEVEL", "info"),
		PrettyLog: mustBool("REWIND_PRETTY_LOG", true),

		// Deployment layout
		DeployDir:      requireEnv("REWIND_DEPLOY_DIR"),
		ManifestSuffix: getenv("REWIND_MANIFEST_SUFFIX", "docker-compose.yml"),
		ServicePrefix:  getenv("REWIND_SERVICE_PREFIX", "app"),
		ServiceName:    getenv("REWIND_SERVICE_NAME", "app"),
		RootDomain:     getenv("REWIND_ROOT_DOMAIN", ""),
		ComposeBin:     getenv("REWIND_COMPOSE_BIN", "docker"),
		ApplyTimeout:   mustDuration("REWIND_APPLY_TIMEOUT", 2*time.Minute),

		RefreshInterval: mustDuration("REWIND_REFRESH_INTERVAL", 30*time.Second),
		JournalHistory:  getenvInt("REWIND_JOURNAL_HISTORY", 50),

		// Redis settings (journal; optional)
		RedisAddr:           getenv("REWIND_REDIS_ADDR", ""),
		RedisUser:           getenv("REWIND_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("REWIND_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("REWIND_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("REWIND_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("REWIND_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("REWIND_TRUST_PROXY", true),

		RateLimitPerMin: getenvInt("REWIND_RATE_LIMIT_PER_MIN", 6),
		RateLimitBurst:  getenvInt("REWIND_RATE_LIMIT_BURST", 3),
	}

	if strings.ContainsAny(cfg.ServiceName, " \t") {
		panic(fmt.Sprintf("❌ FATAL: REWIND_SERVICE_NAME must be a single compose service name, got %q", cfg.ServiceName))
	}
	if cfg.ApplyTimeout <= 0 {
		panic("❌ FATAL: REWIND_APPLY_TIMEOUT must be positive")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// JournalEnabled reports whether a Redis journal backend is configured.
func (c *Config) JournalEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
