package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	MongoURI    string
	DBName      string
	RedisAddr   string
	RedisPass   string
	JWTSecret   string

	SessionTTLDays         int // durable session horizon
	CodeTTLDays            int // reference code validity horizon
	CodeRenewThresholdDays int // renew-on-touch kicks in below this
	CacheTTLMinutes        int // redis write-through TTL
	SweepSchedule          string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "bancosystem"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   getEnv("REDIS_PASSWORD", ""),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),

		SessionTTLDays:         getEnvInt("SESSION_TTL_DAYS", 30),
		CodeTTLDays:            getEnvInt("CODE_TTL_DAYS", 30),
		CodeRenewThresholdDays: getEnvInt("CODE_RENEW_THRESHOLD_DAYS", 5),
		CacheTTLMinutes:        getEnvInt("CACHE_TTL_MINUTES", 15),
		SweepSchedule:          getEnv("SWEEP_SCHEDULE", "0 2 * * *"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
