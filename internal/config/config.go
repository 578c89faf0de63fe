// Package config loads application configuration from environment
// variables, optionally read from a .env file first.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/agfi/registro-backend/internal/logging"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env           string // application environment (dev, test, prod)
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	DBAutoMigrate bool   // apply the embedded schema at boot

	JWTSecret        string        // secret used to sign access tokens
	AccessTTL        time.Duration // access token lifetime
	BcryptCost       int           // bcrypt cost when hashing credentials
	HashNewPasswords bool          // store new credentials as bcrypt hashes

	BadgePrefix   string // prefix of badge codes, e.g. AGFI in AGFI-42
	BadgeLogoPath string // optional logo printed on credentials

	LockTTL       time.Duration // lifetime of per-attendee check-in locks
	AMQPURL       string        // RabbitMQ URL; empty disables notifications
	CheckInLogDir string        // directory of the consumer's check-in log

	LogLevel    string
	LogFormat   string
	CORSOrigins []string
}

// LoadDotEnv reads a .env file from the working directory when present.
// Variables already set in the environment win.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn().Err(err).Msg("could not read .env")
	}
}

// Load reads the server configuration. Missing required variables stop the
// process with a fatal log entry.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		DBAutoMigrate: envBool("DB_AUTO_MIGRATE", false),

		JWTSecret:        must("JWT_SECRET"),
		AccessTTL:        time.Duration(envInt("ACCESS_TOKEN_TTL_MIN", 480)) * time.Minute,
		BcryptCost:       envInt("BCRYPT_COST", 10),
		HashNewPasswords: envBool("HASH_NEW_PASSWORDS", false),

		BadgePrefix:   envStr("BADGE_PREFIX", "AGFI"),
		BadgeLogoPath: os.Getenv("BADGE_LOGO_PATH"),

		LockTTL:       envDur("LOCK_TTL", 10*time.Second),
		AMQPURL:       AMQPURL(),
		CheckInLogDir: envStr("CHECKIN_LOG_DIR", "logs"),

		LogLevel:    envStr("LOG_LEVEL", "info"),
		LogFormat:   envStr("LOG_FORMAT", "json"),
		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),
	}
}

// AMQPURL returns RABBITMQ_URL, falling back to AMQP_URL.
func AMQPURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the process exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logging.Fatal().Str("key", key).Msg("missing required env var")
	}
	return v
}

func envList(k string, d []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return d
	}
	return out
}

// Getenv returns the variable k, or d when it is unset or empty.
func Getenv(k, d string) string { return envStr(k, d) }
