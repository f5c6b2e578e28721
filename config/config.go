package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Environment  string

	JWTSecret string

	AIBaseURL string
	AIAPIKey  string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	SendgridAPIKey    string
	ReminderFromEmail string
}

// New sets up all config related services
func New() *Config {
	// a missing .env is fine, the platform provides the environment in production
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "production")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                 os.Getenv("DB_URI"),
		DatabaseName:        os.Getenv("DB_NAME"),
		BaseURL:             os.Getenv("BASE_URL"),
		Port:                getEnv("PORT", "8080"),
		Environment:         env,
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AIBaseURL:           os.Getenv("AI_BASE_URL"),
		AIAPIKey:            os.Getenv("AI_API_KEY"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "case-documents"),
		SendgridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		ReminderFromEmail:   getEnv("REMINDER_FROM_EMAIL", "no-reply@legalcase.app"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"response": fmt.Sprintf("%s, %v", message, err)})
}
