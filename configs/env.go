package configs

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// loadEnv loads the .env file once; a missing file is fine in deployments
// where configuration comes from the real environment.
func loadEnv() {
	loadOnce.Do(func() {
		_ = godotenv.Load()
	})
}

func getEnv(key, fallback string) string {
	loadEnv()
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func EnvMongoURI() string {
	return getEnv("MONGOURI", "mongodb://localhost:27017")
}

func EnvDBName() string {
	return getEnv("DB_NAME", "bakehouseApi")
}

func EnvPort() string {
	return getEnv("PORT", "3000")
}

func EnvJWTSecret() string {
	return getEnv("JWT_SECRET", "")
}

func EnvRazorpayKeyId() string {
	return getEnv("RAZORPAY_KEY_ID", "")
}

func EnvRazorpayKeySecret() string {
	return getEnv("RAZORPAY_KEY_SECRET", "")
}
