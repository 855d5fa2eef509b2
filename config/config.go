package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultServerPort     = 8080
	defaultAdvanceTimeout = 15 * time.Second
	defaultNATSSubject    = "tournaments.phase.advanced"
)

// Config holds every setting the server and phasectl read from the environment.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	LogLevel     slog.Level

	// AdvanceTimeout bounds a single phase advancement end to end.
	AdvanceTimeout     time.Duration
	CORSAllowedOrigins []string

	NATSURL     string
	NATSSubject string

	// OTLPEndpoint receives traces over OTLP/gRPC; empty disables export.
	OTLPEndpoint string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// ArchiveEnabled reports whether the R2 standings archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.R2AccountID != ""
}

// Load reads the configuration from the environment. A .env file is picked up
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	port := defaultServerPort
	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
		}
		port = p
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	timeout := defaultAdvanceTimeout
	if raw := os.Getenv("ADVANCE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ADVANCE_TIMEOUT environment variable: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("ADVANCE_TIMEOUT must be positive, got %s", d)
		}
		timeout = d
	}

	subject := os.Getenv("NATS_SUBJECT")
	if subject == "" {
		subject = defaultNATSSubject
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       os.Getenv("JWT_SECRET_KEY"),
		ServerPort:         port,
		LogLevel:           ParseLogLevel(os.Getenv("LOG_LEVEL")),
		AdvanceTimeout:     timeout,
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS"), []string{"*"}),
		NATSURL:            os.Getenv("NATS_URL"),
		NATSSubject:        subject,
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	if err := cfg.validateR2(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireServerSecrets checks the settings only the HTTP server needs.
func (c *Config) RequireServerSecrets() error {
	if c.JWTSecretKey == "" {
		return errors.New("JWT_SECRET_KEY environment variable is not set")
	}
	return nil
}

func (c *Config) validateR2() error {
	values := map[string]string{
		"R2_ACCOUNT_ID":        c.R2AccountID,
		"R2_ACCESS_KEY_ID":     c.R2AccessKeyID,
		"R2_SECRET_ACCESS_KEY": c.R2SecretAccessKey,
		"R2_BUCKET_NAME":       c.R2BucketName,
		"R2_PUBLIC_BASE_URL":   c.R2PublicBaseURL,
	}
	var set, missing []string
	for _, name := range slices.Sorted(maps.Keys(values)) {
		v := values[name]
		if v == "" {
			missing = append(missing, name)
		} else {
			set = append(set, name)
		}
	}
	if len(set) > 0 && len(missing) > 0 {
		return fmt.Errorf("incomplete R2 configuration, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ParseLogLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(raw string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
