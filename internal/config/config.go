package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	WebAddr string

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	Debug         bool

	PreferIPv4  bool
	HTTPTimeout time.Duration

	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiAPIVersion string
	GeminiModel      string
	GeminiImageSize  string
	GeminiTransport  string
	VerifyCredential bool

	StorageBackend string
	DataDir        string
	SQLitePath     string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string

	MaxHistory  int
	MaxUploadMB int

	ExportDir      string
	TelegramToken  string
	TelegramChatID int64
}

// Load reads configuration from the environment. When CONFIG_FILE points at
// a YAML file its keys (same names as the variables) provide defaults that
// the environment overrides.
func Load() (Config, error) {
	l := loader{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		values, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		l.file = values
	}

	cfg := Config{
		WebAddr:          l.getEnv("WEB_ADDR", ":8080"),
		LogLevel:         strings.ToLower(l.getEnv("LOG_LEVEL", "info")),
		LogFile:          l.getEnv("LOG_FILE", ""),
		LogMaxSizeMB:     l.getEnvInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups:    l.getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays:    l.getEnvInt("LOG_MAX_AGE_DAYS", 14),
		Debug:            l.getEnvBool("DEBUG", false),
		PreferIPv4:       l.getEnvBool("PREFER_IPV4", true),
		HTTPTimeout:      time.Duration(l.getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		GeminiAPIKey:     l.getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:    l.getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIVersion: l.getEnv("GEMINI_API_VERSION", "v1beta"),
		GeminiModel:      l.getEnv("GEMINI_MODEL", "gemini-3-pro-image-preview"),
		GeminiImageSize:  l.getEnv("GEMINI_IMAGE_SIZE", "2K"),
		GeminiTransport:  strings.ToLower(l.getEnv("GEMINI_TRANSPORT", "rest")),
		VerifyCredential: l.getEnvBool("VERIFY_CREDENTIAL", false),
		StorageBackend:   strings.ToLower(l.getEnv("STORAGE_BACKEND", "file")),
		DataDir:          l.getEnv("DATA_DIR", "data"),
		SQLitePath:       l.getEnv("SQLITE_PATH", "data/studio.db"),
		RedisAddr:        l.getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    l.getEnv("REDIS_PASSWORD", ""),
		RedisDB:          l.getEnvInt("REDIS_DB", 0),
		RedisPrefix:      l.getEnv("REDIS_PREFIX", "home-rugs:"),
		MaxHistory:       l.getEnvInt("MAX_HISTORY", 50),
		MaxUploadMB:      l.getEnvInt("MAX_UPLOAD_MB", 20),
		ExportDir:        l.getEnv("EXPORT_DIR", "exports"),
		TelegramToken:    l.getEnv("TELEGRAM_BOT_TOKEN", ""),
	}

	if raw := l.getEnv("TELEGRAM_CHAT_ID", ""); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	switch cfg.StorageBackend {
	case "file", "sqlite", "redis", "memory":
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND %q is not one of file, sqlite, redis, memory", cfg.StorageBackend)
	}
	switch cfg.GeminiTransport {
	case "rest", "sdk":
	default:
		return Config{}, fmt.Errorf("GEMINI_TRANSPORT %q is not one of rest, sdk", cfg.GeminiTransport)
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return Config{}, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	if cfg.MaxHistory < 0 {
		cfg.MaxHistory = 0
	}
	if cfg.MaxUploadMB < 1 {
		cfg.MaxUploadMB = 1
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.LogMaxSizeMB < 1 {
		cfg.LogMaxSizeMB = 1
	}

	return cfg, nil
}

func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return values, nil
}

type loader struct {
	file map[string]string
}

func (l loader) lookup(key string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(l.file[key])
}

func (l loader) getEnv(key, fallback string) string {
	if value := l.lookup(key); value != "" {
		return value
	}
	return fallback
}

func (l loader) getEnvInt(key string, fallback int) int {
	value := l.lookup(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (l loader) getEnvBool(key string, fallback bool) bool {
	value := l.lookup(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
