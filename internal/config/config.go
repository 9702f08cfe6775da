package config

import (
	"os"
)

type Config struct {
	ServerPort    string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	JWTSecret     string
	StorageRoot   string
	OwnerUsername string
}

func Load() *Config {
	return &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "leaf"),
		DBPassword:    getEnv("DB_PASSWORD", "leaf_dev_password"),
		DBName:        getEnv("DB_NAME", "leafregistry"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		StorageRoot:   getEnv("STORAGE_ROOT", "storage"),
		OwnerUsername: getEnv("OWNER_USERNAME", "root"),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}
