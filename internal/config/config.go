package config // package config loads application configuration from environment variables

import (
	"log"  // log is used to report configuration errors and halt execution
	"os"   // os provides access to environment variables
	"time" // time expresses the hold window and sweep interval
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Collaborator credentials (catalog,
// payment provider, identity provider) are injected here and passed to
// explicitly constructed clients; nothing reads them from globals.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	AuthSecret    string        // shared secret the identity provider signs session tokens with
	TMDBKey       string        // bearer key for the movie catalog provider
	StripeKey     string        // payment provider secret key
	StripeWebhook string        // payment provider webhook signing secret
	Currency      string        // ISO currency code for checkout sessions
	FrontendURL   string        // base URL the payment provider redirects back to
	AMQPURL       string        // message broker URL (empty disables events)
	HoldWindow    time.Duration // how long a PENDING booking keeps its seats
	SweepInterval time.Duration // how often the expiry sweep runs
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
// The hold window is a deployment choice, not a protocol constant, so
// it is configurable with a 15 minute default.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		AuthSecret:    must("AUTH_JWT_SECRET"),
		TMDBKey:       must("TMDB_API_KEY"),
		StripeKey:     must("STRIPE_SECRET_KEY"),
		StripeWebhook: must("STRIPE_WEBHOOK_SECRET"),
		Currency:      envStr("CHECKOUT_CURRENCY", "usd"),
		FrontendURL:   must("FRONTEND_URL"),
		AMQPURL:       os.Getenv("RABBITMQ_URL"), // empty disables event publishing
		HoldWindow:    envDur("BOOKING_HOLD_WINDOW", 15*time.Minute),
		SweepInterval: envDur("EXPIRY_SWEEP_INTERVAL", time.Minute),
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
