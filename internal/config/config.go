package config

import (
	"os"
	"strconv"
	"strings"
)

// MinIOConfig holds object storage settings for the optional MinIO backend.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port string

	// StorageBackend selects where blobs live: "disk" (default) or "minio".
	StorageBackend string
	// StorageDir is the flat directory used by the disk backend.
	StorageDir string

	// MaxUploadBytes caps the accepted upload size; 0 means unlimited.
	MaxUploadBytes int64
	// AllowedExtensions is a lowercase allow-list (".pdf,.png"); empty means any.
	AllowedExtensions []string

	MinIO MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Port:              getEnv("PORT", "8080"),
		StorageBackend:    getEnv("STORAGE_BACKEND", "disk"),
		StorageDir:        getEnv("STORAGE_DIR", "./uploads"),
		MaxUploadBytes:    getEnvInt64("MAX_UPLOAD_BYTES", 0),
		AllowedExtensions: parseExtensions(getEnv("ALLOWED_EXTENSIONS", "")),
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

// parseExtensions normalizes a comma-separated list into lowercase dot-prefixed
// extensions. Blank entries are dropped; an empty input yields a nil slice.
func parseExtensions(raw string) []string {
	if raw == "" {
		return nil
	}
	var exts []string
	for _, part := range strings.Split(raw, ",") {
		ext := strings.ToLower(strings.TrimSpace(part))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
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

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
