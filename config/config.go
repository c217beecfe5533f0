package configs

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	MongoDBURL  string
	MongoDBName string
	DataFile    string
	RedisURL    string
	NATSURL     string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading configuration from environment")
	}
	config := Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		MongoDBURL:  getEnv("MONGODB_URI", ""),
		MongoDBName: getEnv("MONGODB_NAME", "prepcore"),
		DataFile:    getEnv("DATA_FILE", defaultDataFile()),
		RedisURL:    getEnv("REDIS_URL", ""),
		NATSURL:     getEnv("NATS_URL", ""),
	}
	return config
}

// defaultDataFile places the local store's data file under the OS temp
// directory when a serverless execution-environment marker is present,
// since those platforms only allow writes to /tmp.
func defaultDataFile() string {
	if os.Getenv("VERCEL") != "" || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return filepath.Join(os.TempDir(), "prepcore-data.json")
	}
	return filepath.Join("data", "db.json")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
