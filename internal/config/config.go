package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vytor/learncert/internal/logger"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	// RemoteDSN points at the Postgres mirror. Empty runs local-only.
	RemoteDSN         string
	MirrorWorkerCount int
	MirrorQueueSize   int
	ResyncInterval    time.Duration
	ResyncGrace       time.Duration

	SectionPassAccuracy int
	MasterPassAccuracy  int
	MasterMinSections   int

	AdminPassHash    string
	AdminTokenSecret string
	AdminTokenTTL    time.Duration

	CORSOrigins   []string
	SecureCookies bool
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                envOr("ADDR", ":8080"),
		DBPath:              envOr("DB_PATH", "file:learncert.db"),
		LogLevel:            envOr("LOG_LEVEL", "INFO"),
		RemoteDSN:           os.Getenv("REMOTE_DSN"),
		MirrorWorkerCount:   envIntOr("MIRROR_WORKER_COUNT", 2),
		MirrorQueueSize:     envIntOr("MIRROR_QUEUE_SIZE", 128),
		ResyncInterval:      time.Duration(envIntOr("RESYNC_INTERVAL_SECONDS", 300)) * time.Second,
		ResyncGrace:         time.Duration(envIntOr("RESYNC_GRACE_SECONDS", 60)) * time.Second,
		SectionPassAccuracy: envIntOr("SECTION_PASS_ACCURACY", 60),
		MasterPassAccuracy:  envIntOr("MASTER_PASS_ACCURACY", 80),
		MasterMinSections:   envIntOr("MASTER_MIN_SECTIONS", 1),
		AdminPassHash:       os.Getenv("ADMIN_PASS_HASH"),
		AdminTokenSecret:    envOr("ADMIN_TOKEN_SECRET", "change-me-in-production"),
		AdminTokenTTL:       time.Duration(envIntOr("ADMIN_TOKEN_TTL_MINUTES", 480)) * time.Minute,
		CORSOrigins:         csvOr("CORS_ORIGINS", "http://localhost:3000"),
		SecureCookies:       envBoolOr("SECURE_COOKIES", false),
	}
}

// MirrorEnabled reports whether a remote mirror is configured.
func (c Config) MirrorEnabled() bool {
	return strings.TrimSpace(c.RemoteDSN) != ""
}

// Validate returns every configuration problem joined into one error.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if _, ok := logger.LookupLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	if c.MirrorWorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("MIRROR_WORKER_COUNT must be positive (got %d)", c.MirrorWorkerCount))
	}
	if c.MirrorQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("MIRROR_QUEUE_SIZE must be positive (got %d)", c.MirrorQueueSize))
	}
	if c.ResyncInterval < 0 {
		errs = append(errs, errors.New("RESYNC_INTERVAL_SECONDS cannot be negative"))
	}
	if c.ResyncGrace < 0 {
		errs = append(errs, errors.New("RESYNC_GRACE_SECONDS cannot be negative"))
	}
	if c.SectionPassAccuracy < 0 || c.SectionPassAccuracy > 100 {
		errs = append(errs, fmt.Errorf("SECTION_PASS_ACCURACY must be between 0 and 100 (got %d)", c.SectionPassAccuracy))
	}
	if c.MasterPassAccuracy < 0 || c.MasterPassAccuracy > 100 {
		errs = append(errs, fmt.Errorf("MASTER_PASS_ACCURACY must be between 0 and 100 (got %d)", c.MasterPassAccuracy))
	}
	if c.MasterMinSections < 1 {
		errs = append(errs, fmt.Errorf("MASTER_MIN_SECTIONS must be at least 1 (got %d)", c.MasterMinSections))
	}
	if c.AdminPassHash != "" && !strings.HasPrefix(c.AdminPassHash, "$2") {
		errs = append(errs, errors.New("ADMIN_PASS_HASH must be a bcrypt hash"))
	}
	if c.AdminPassHash != "" && len(c.AdminTokenSecret) < 16 {
		errs = append(errs, errors.New("ADMIN_TOKEN_SECRET must be at least 16 characters"))
	}
	if c.AdminTokenTTL <= 0 {
		errs = append(errs, errors.New("ADMIN_TOKEN_TTL_MINUTES must be positive"))
	}

	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}

func csvOr(key, def string) []string {
	parts := strings.Split(envOr(key, def), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
