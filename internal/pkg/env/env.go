package env

import (
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var fileEnv map[string]string

// GetEnv resolves key from the loaded .env file first, then from the
// process environment, then falls back to def.
func GetEnv(key, def string) string {
	if val, ok := fileEnv[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file it finds. Containerized
// deployments ship config through the process environment instead, so a
// missing file is not fatal.
func SetupEnvFile() {
	candidates := []string{
		".env",
		"../../.env", // from cmd/posterdeck during development
	}

	for _, path := range candidates {
		loaded, err := godotenv.Read(path)
		if err == nil {
			fileEnv = loaded
			return
		}
	}

	log.Info("no .env file found, using process environment only")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
