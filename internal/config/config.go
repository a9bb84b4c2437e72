package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// OpenRouterURL is the fixed chat-completions endpoint all requests go to.
	OpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"

	// DefaultModel is the vision model used for food analysis.
	DefaultModel = "google/gemini-2.5-flash-image-preview:free"

	// CheckModel is a cheap text model used only by the connectivity self-test.
	CheckModel = "google/gemini-2.0-flash-001"

	// DefaultPrompt instructs the model to look for unsafe ingredients.
	DefaultPrompt = `Analyze this food image for safety concerns. Check for:
- Potentially harmful or unsafe ingredients

Provide a concise response about any dangerous ingredients or safety issues found.`
)

type Config struct {
	Port           int
	APIKey         string
	HTTPReferer    string
	XTitle         string
	Model          string
	Prompt         string
	RequestTimeout time.Duration
	PhotosDir      string
	DatabasePath   string
	LogDirectory   string
	MaxUploadSize  int64   // Maximum accepted upload size in bytes
	MaxPhotosSize  int64   // Maximum size of the photos directory in GB
	Temperature    float64 // Kept low to bias toward factual output
	MaxTokens      int
}

func Load() *Config {
	return &Config{
		Port:           getEnvAsInt("PORT", 8080),
		APIKey:         getEnv("OPENROUTER_API_KEY", ""),
		HTTPReferer:    getEnv("HTTP_REFERER", ""),
		XTitle:         getEnv("X_TITLE", "Food Safety Analyzer"),
		Model:          getEnv("OPENROUTER_MODEL", DefaultModel),
		Prompt:         getEnv("ANALYSIS_PROMPT", DefaultPrompt),
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT", 60)) * time.Second,
		PhotosDir:      getEnv("PHOTOS_DIR", filepath.Join(".", "photos")),
		DatabasePath:   getEnv("DB_PATH", filepath.Join("data", "analyses.db")),
		LogDirectory:   getEnv("LOG_DIR", filepath.Join(".", "logs")),
		MaxUploadSize:  getEnvAsInt64("MAX_UPLOAD_SIZE_MB", 20) * 1024 * 1024,
		MaxPhotosSize:  getEnvAsInt64("MAX_PHOTOS_DIR_SIZE", 2), // GB
		Temperature:    0.1,
		MaxTokens:      1000,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
