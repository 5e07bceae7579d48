package config

import (
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const defaultFirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

type Config struct {
	// Server
	Port            string
	AppEnv          string
	CORSOrigins     string
	ShutdownTimeout time.Duration

	// MongoDB
	MongoURI        string
	DBUser          string
	DBPass          string
	DBCluster       string
	MongoDatabase   string
	UsersCollection string
	PostsCollection string
	StoreTimeout    time.Duration

	// Firebase identity provider
	FirebaseProjectID       string
	FirebaseJWKSURL         string
	FirebaseCredentialsFile string
	IdentityTimeout         time.Duration

	// Admin bootstrap
	AdminEmails string
	AdminUIDs   string

	// Observability
	LogLevel       string
	LogDatabaseDSN string
	LogRetention   time.Duration
	SentryDSN      string
}

// Load reads the process environment. A .env file in the working directory
// is applied first and never overrides variables that are already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("PORT", "5000"),
		AppEnv:          getEnv("APP_ENV", "development"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "15s"), 15*time.Second),

		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBUser:          getEnv("DB_USER", ""),
		DBPass:          getEnv("DB_PASS", ""),
		DBCluster:       getEnv("DB_CLUSTER", ""),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "i_news"),
		UsersCollection: getEnv("USERS_COLLECTION", "users"),
		PostsCollection: getEnv("POSTS_COLLECTION", "post"),
		StoreTimeout:    parseDuration(getEnv("STORE_TIMEOUT", "10s"), 10*time.Second),

		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseJWKSURL:         getEnv("FIREBASE_JWKS_URL", defaultFirebaseJWKSURL),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		IdentityTimeout:         parseDuration(getEnv("IDENTITY_TIMEOUT", "5s"), 5*time.Second),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),
		AdminUIDs:   getEnv("ADMIN_UIDS", ""),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDatabaseDSN: getEnv("LOG_DATABASE_DSN", ""),
		LogRetention:   parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
	}
}

// MongoConnectionURI prefers an Atlas SRV URI assembled from DB_USER, DB_PASS
// and DB_CLUSTER, falling back to MONGODB_URI.
func (c *Config) MongoConnectionURI() string {
	if c.DBUser == "" || c.DBPass == "" || c.DBCluster == "" {
		return c.MongoURI
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     c.DBCluster,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
