package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	OCR   OCRConfig
	Store StoreConfig
}

// OCRConfig holds recognition- and document-related configuration
type OCRConfig struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	MaxOCRPages   int           // page cap for the OCR fallback, default 10
	MaxFileBytes  int64         // reject documents larger than this, default 50 MB
	Timeout       time.Duration // per-document processing deadline imposed by the CLI
}

// StoreConfig holds persistence-related configuration
type StoreConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			MaxOCRPages:   getEnvAsInt("OCR_MAX_PAGES", 10),
			MaxFileBytes:  getEnvAsInt64("MAX_FILE_BYTES", 50<<20),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
		},
		Store: StoreConfig{
			Path: getEnv("RECEIPT_DB_PATH", "receipts.db"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
