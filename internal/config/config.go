package config

import (
	"os"
	"strconv"
	"strings"
)

// StorageConfig holds settings for the local artifact store.
type StorageConfig struct {
	// BaseDir is the directory converted presentations are written to and served from.
	BaseDir string
}

// ConvertConfig holds document conversion settings.
type ConvertConfig struct {
	// DetailsSlide appends a trailing "Details" slide carrying the last paragraph.
	DetailsSlide bool
	// MaxUploadMB caps the request body size accepted by the server.
	MaxUploadMB int
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowOrigins string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables.
type AppConfig struct {
	AppHost string
	// SwaggerSchemes are the schemes advertised by the API documentation.
	SwaggerSchemes []string
	Port           string
	Timezone       string
	Log            LogConfig
	Storage        StorageConfig
	Convert        ConvertConfig
	CORS           CORSConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		SwaggerSchemes: getEnvList("SWAGGER_SCHEMES", "http"),
		Port:           getEnv("PORT", "8080"),
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Storage: StorageConfig{
			BaseDir: getEnv("ARTIFACT_DIR", "ppt"),
		},
		Convert: ConvertConfig{
			DetailsSlide: getEnvBool("CONVERT_DETAILS_SLIDE", true),
			MaxUploadMB:  getEnvInt("MAX_UPLOAD_MB", 20),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
	}
}

// BodyLimit returns the maximum request body size in bytes.
func (c ConvertConfig) BodyLimit() int {
	if c.MaxUploadMB <= 0 {
		return 20 << 20
	}
	return c.MaxUploadMB << 20
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvList(key, def string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, def), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
