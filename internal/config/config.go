package config // package config loads application configuration from environment variables

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables

	"github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Connection credentials live here and nowhere
// else; the persistence layer never reads the environment itself.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	LogLevel string // zerolog level name ("debug", "info", ...)
	DBUser   string // database username
	DBPass   string // database password (optional)
	DBHost   string // database host address
	DBPort   string // database port number
	DBName   string // database name
}

// Load reads configuration values from environment variables and returns a
// Config. A .env file in the working directory is loaded first when one
// exists; variables already set in the environment win. Required variables
// are enforced by must() and missing values cause the program to exit with
// a fatal log message.
func Load() Config {
	_ = godotenv.Load() // a missing .env file is not an error

	return Config{
		Env:      optional("APP_ENV", "dev"),
		LogLevel: optional("LOG_LEVEL", "info"),
		DBUser:   must("DB_USER"),
		DBPass:   os.Getenv("DB_PASS"), // empty password allowed
		DBHost:   must("DB_HOST"),
		DBPort:   must("DB_PORT"),
		DBName:   must("DB_NAME"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// optional retrieves an environment variable, falling back to def when it is
// unset or empty.
func optional(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
