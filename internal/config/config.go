package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthConfig holds bearer token verification settings for the external auth provider.
type AuthConfig struct {
	Domain   string // e.g., "your-tenant.auth.example.com"
	Audience string // e.g., "https://api.dashboard.example.com"
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
}

// ImageHostConfig holds signed-upload credentials for the image host.
// All three credentials must be present for uploads to work.
type ImageHostConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Configured reports whether every credential needed for signed uploads is set.
func (c ImageHostConfig) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type Config struct {
	Port              string
	Environment       string
	LogLevel          string
	MigrationsPath    string
	RedisURL          string
	AllowedOrigins    []string
	ProjectQueryChunk int
	InviteTTL         time.Duration
	Database          DatabaseConfig
	Auth              AuthConfig
	ImageHost         ImageHostConfig
}

// Load reads configuration from environment variables.
// It fails fast with clear errors for missing required values.
func Load() (*Config, error) {
	var missing []string

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "staging" && env != "production" {
		return nil, fmt.Errorf("invalid ENV value %q: must be development, staging, or production", env)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	authDomain := os.Getenv("AUTH_DOMAIN")
	if authDomain == "" {
		missing = append(missing, "AUTH_DOMAIN")
	}

	authAudience := os.Getenv("AUTH_AUDIENCE")
	if authAudience == "" {
		missing = append(missing, "AUTH_AUDIENCE")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	if err := validateDatabaseURL(databaseURL); err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	if err := validateAuthDomain(authDomain); err != nil {
		return nil, fmt.Errorf("invalid AUTH_DOMAIN: %w", err)
	}

	logLevel := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if logLevel == "" {
		logLevel = "info"
	}

	chunk := getEnvInt("PROJECT_QUERY_CHUNK", 10)
	if chunk < 1 {
		return nil, fmt.Errorf("invalid PROJECT_QUERY_CHUNK %d: must be at least 1", chunk)
	}

	inviteTTL, err := getEnvDuration("INVITE_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid INVITE_TTL: %w", err)
	}

	redisURL := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if redisURL != "" {
		if err := validateRedisURL(redisURL); err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
	}

	folder := os.Getenv("IMAGEHOST_FOLDER")
	if folder == "" {
		folder = "dashboard"
	}

	return &Config{
		Port:              port,
		Environment:       env,
		LogLevel:          logLevel,
		MigrationsPath:    os.Getenv("MIGRATIONS_PATH"),
		RedisURL:          redisURL,
		AllowedOrigins:    splitList(os.Getenv("ALLOWED_ORIGINS")),
		ProjectQueryChunk: chunk,
		InviteTTL:         inviteTTL,
		Database: DatabaseConfig{
			URL:             databaseURL,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		},
		Auth: AuthConfig{
			Domain:   authDomain,
			Audience: authAudience,
		},
		ImageHost: ImageHostConfig{
			CloudName: os.Getenv("IMAGEHOST_CLOUD_NAME"),
			APIKey:    os.Getenv("IMAGEHOST_API_KEY"),
			APISecret: os.Getenv("IMAGEHOST_API_SECRET"),
			Folder:    folder,
		},
	}, nil
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// validateAuthDomain ensures the auth provider domain is properly formatted.
func validateAuthDomain(domain string) error {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}

	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return fmt.Errorf("domain should not include protocol (http:// or https://)")
	}

	if !strings.Contains(domain, ".") {
		return fmt.Errorf("domain must be a valid hostname (e.g., your-tenant.auth.example.com)")
	}

	return nil
}

// validateDatabaseURL ensures the database URL is a valid PostgreSQL connection string.
func validateDatabaseURL(dbURL string) error {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}

	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return fmt.Errorf("URL must use postgres or postgresql scheme, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

func validateRedisURL(redisURL string) error {
	parsed, err := url.Parse(redisURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if parsed.Scheme != "redis" && parsed.Scheme != "rediss" {
		return fmt.Errorf("URL must use redis or rediss scheme, got %q", parsed.Scheme)
	}
	return nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// getEnvDuration reads an environment variable as a Go duration string.
// Unlike getEnvInt, a malformed value is an error instead of the default.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}
