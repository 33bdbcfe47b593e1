package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// TestDatabase is the isolated namespace selected by TESTING=1.
	TestDatabase    = "test_db"
	defaultDatabase = "bank_accounts"
	defaultMongoURI = "mongodb://mongo:27017"
)

// Config holds all configuration for the Go server.
// Values are read from environment variables at startup.
type Config struct {
	// Database
	MongoURI       string
	Database       string
	Testing        bool
	ConnectTimeout time.Duration
	RunMigrations  bool

	// Server
	Port               int
	CORSAllowedOrigins []string

	Env string
}

// IsDevelopment reports whether the service runs with APP_ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error if a value cannot be parsed or is out of range.
//
// Boolean keys (TESTING, RUN_MIGRATIONS) accept the strconv.ParseBool forms:
// 1, t, T, TRUE, true, True, 0, f, F, FALSE, false, False. Anything else,
// such as "yes", is a configuration error rather than a silent false.
func Load() (*Config, error) {
	var errs []string

	optional := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	optionalInt := func(key string, fallback int) int {
		v := os.Getenv(key)
		if v == "" {
			return fallback
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("env var %s: expected integer, got %q", key, v))
			return fallback
		}
		return n
	}

	optionalBool := func(key string, fallback bool) bool {
		v := os.Getenv(key)
		if v == "" {
			return fallback
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("env var %s: expected boolean, got %q", key, v))
			return fallback
		}
		return b
	}

	// Database
	mongoURI := optional("MONGO_URI", defaultMongoURI)
	testing := optionalBool("TESTING", false)
	database := optional("MONGO_DATABASE", defaultDatabase)
	connectTimeoutSec := optionalInt("MONGO_CONNECT_TIMEOUT_SEC", 10)
	runMigrations := optionalBool("RUN_MIGRATIONS", true)

	// Server
	port := optionalInt("PORT", 8000)
	origins := splitList(optional("CORS_ALLOWED_ORIGINS", "*"))

	env := optional("APP_ENV", "production")

	if !strings.HasPrefix(mongoURI, "mongodb://") && !strings.HasPrefix(mongoURI, "mongodb+srv://") {
		errs = append(errs, fmt.Sprintf("MONGO_URI must use the mongodb:// or mongodb+srv:// scheme, got %q", mongoURI))
	}
	if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be between 1 and 65535, got %d", port))
	}
	if connectTimeoutSec < 1 {
		errs = append(errs, fmt.Sprintf("MONGO_CONNECT_TIMEOUT_SEC must be positive, got %d", connectTimeoutSec))
	}
	if env != "production" && env != "development" {
		errs = append(errs, fmt.Sprintf("APP_ENV must be \"production\" or \"development\", got %q", env))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed:\n  %s", joinErrors(errs))
	}

	// Test runs never touch the real namespace.
	if testing {
		database = TestDatabase
	}

	return &Config{
		MongoURI:           mongoURI,
		Database:           database,
		Testing:            testing,
		ConnectTimeout:     time.Duration(connectTimeoutSec) * time.Second,
		RunMigrations:      runMigrations,
		Port:               port,
		CORSAllowedOrigins: origins,
		Env:                env,
	}, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinErrors(errs []string) string {
	result := errs[0]
	for _, e := range errs[1:] {
		result += "\n  " + e
	}
	return result
}
