package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Store backends selectable through STORE_BACKEND.
const (
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

type Config struct {
	StoreBackend string
	SQLitePath   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ServerPort string

	JWTSecret string

	AccessTokenMaxAge  int
	RefreshTokenMaxAge int
	BcryptCost         int

	RedisURL    string
	WorkerCount int

	FirebaseProjectID   string
	FirebaseClientEmail string
	FirebasePrivateKey  string
	FirebaseAPIKey      string

	SeedDemoData     bool
	DefaultAvatarURL string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	return &Config{
		StoreBackend: getEnv("STORE_BACKEND", BackendSQLite),
		SQLitePath:   getEnv("SQLITE_PATH", "hackmate.db"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		ServerPort: getEnv("SERVER_PORT", "8080"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AccessTokenMaxAge:  getEnvInt("ACCESS_TOKEN_MAX_AGE", 900),
		RefreshTokenMaxAge: getEnvInt("REFRESH_TOKEN_MAX_AGE", 2592000),
		BcryptCost:         getEnvInt("BCRYPT_COST", 10),

		RedisURL:    os.Getenv("REDIS_URL"),
		WorkerCount: getEnvInt("WORKER_COUNT", 2),

		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseClientEmail: os.Getenv("FIREBASE_CLIENT_EMAIL"),
		FirebasePrivateKey:  os.Getenv("FIREBASE_PRIVATE_KEY"),
		FirebaseAPIKey:      os.Getenv("FIREBASE_API_KEY"),

		SeedDemoData:     getEnvBool("SEED_DEMO_DATA", false),
		DefaultAvatarURL: os.Getenv("DEFAULT_AVATAR_URL"),
	}, nil
}

// FirebaseConfigured reports whether service account credentials are present.
func (c *Config) FirebaseConfigured() bool {
	return c.FirebaseProjectID != "" && c.FirebaseClientEmail != "" && c.FirebasePrivateKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt falls back on missing, malformed or non-positive values.
func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
