package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort          = 5000
	defaultDatabaseURL   = "data/contest.db"
	defaultUploadDir     = "uploads"
	defaultMaxUploadMB   = 5
	defaultSessionTTL    = 12 * time.Hour
	insecureDevSecret    = "insecure-dev-secret-change-me"
	defaultPhotoExtsList = "jpg,jpeg,png,gif"
)

type Config struct {
	Port              int
	DatabaseURL       string
	DatabaseType      string
	UploadDir         string
	Dev               bool
	SessionSecret     string
	AdminPassword     string
	AdminPasswordHash string
	MaxUploadBytes    int64
	AllowedExts       []string
	ResultsPublic     bool
	SessionTTL        time.Duration
	SeedCategories    bool
	CookieSecure      bool
	LogLevel          slog.Level
}

// Load reads a .env file from the working directory, if one exists, and then
// parses flags. Variables already present in the environment are not
// overridden by the file.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return ParseFlags(args)
}

// ParseFlags validates flags and fills unset values from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("costume-contest", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database path or URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.UploadDir, "u", "", "Directory for uploaded photos")
	fs.BoolVar(&cfg.Dev, "dev", false, "Development mode (allows insecure session secret)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session signing secret (prefer env)")
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "Admin password (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = defaultPort
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = envOr("DATABASE_URL", defaultDatabaseURL)
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = envOr("DATABASE_TYPE", "sqlite")
	}
	cfg.DatabaseType = strings.ToLower(cfg.DatabaseType)
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported DATABASE_TYPE %q", cfg.DatabaseType)
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = envOr("UPLOAD_DIR", defaultUploadDir)
	}

	if !cfg.Dev {
		cfg.Dev = strings.EqualFold(os.Getenv("APP_ENV"), "development")
	}

	// Secrets - the session secret may only be defaulted in development
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		if !cfg.Dev {
			return Config{}, errors.New("SESSION_SECRET required (or run with -dev)")
		}
		slog.Warn("using insecure development session secret")
		cfg.SessionSecret = insecureDevSecret
	}

	if cfg.AdminPassword == "" {
		cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	}
	cfg.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		return Config{}, errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH required")
	}

	maxMB, err := envInt("MAX_UPLOAD_MB", defaultMaxUploadMB)
	if err != nil {
		return Config{}, err
	}
	if maxMB <= 0 {
		return Config{}, errors.New("MAX_UPLOAD_MB must be positive")
	}
	cfg.MaxUploadBytes = int64(maxMB) << 20

	cfg.AllowedExts = parseExts(envOr("ALLOWED_PHOTO_EXTS", defaultPhotoExtsList))
	if len(cfg.AllowedExts) == 0 {
		return Config{}, errors.New("ALLOWED_PHOTO_EXTS must list at least one extension")
	}

	if cfg.ResultsPublic, err = envBool("RESULTS_PUBLIC", false); err != nil {
		return Config{}, err
	}
	if cfg.SeedCategories, err = envBool("SEED_CATEGORIES", true); err != nil {
		return Config{}, err
	}
	if cfg.CookieSecure, err = envBool("COOKIE_SECURE", false); err != nil {
		return Config{}, err
	}

	cfg.SessionTTL = defaultSessionTTL
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			return Config{}, errors.New("invalid SESSION_TTL env variable")
		}
		cfg.SessionTTL = d
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return Config{}, errors.New("invalid LOG_LEVEL env variable")
		}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s env variable", key)
	}
	return b, nil
}

// parseExts normalises a comma separated list like ".JPG, png" to [jpg png].
func parseExts(list string) []string {
	var exts []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(list, ",") {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	return exts
}
