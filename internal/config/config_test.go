package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every key Load reads so host settings cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "WEB_ADDR", "LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS",
		"LOG_MAX_AGE_DAYS", "DEBUG", "PREFER_IPV4", "HTTP_TIMEOUT_SECONDS", "GEMINI_API_KEY",
		"GEMINI_BASE_URL", "GEMINI_API_VERSION", "GEMINI_MODEL", "GEMINI_IMAGE_SIZE",
		"GEMINI_TRANSPORT", "VERIFY_CREDENTIAL", "STORAGE_BACKEND", "DATA_DIR", "SQLITE_PATH",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PREFIX", "MAX_HISTORY", "MAX_UPLOAD_MB",
		"EXPORT_DIR", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GeminiAPIKey != "" {
		t.Error("api key should be optional")
	}
	if cfg.GeminiModel != "gemini-3-pro-image-preview" || cfg.GeminiImageSize != "2K" {
		t.Errorf("model defaults = %s %s", cfg.GeminiModel, cfg.GeminiImageSize)
	}
	if cfg.StorageBackend != "file" || cfg.GeminiTransport != "rest" {
		t.Errorf("backend = %s transport = %s", cfg.StorageBackend, cfg.GeminiTransport)
	}
	if cfg.MaxHistory != 50 || cfg.HTTPTimeout != 180*time.Second {
		t.Errorf("history = %d timeout = %v", cfg.MaxHistory, cfg.HTTPTimeout)
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "studio.yaml")
	content := "GEMINI_MODEL: file-model\nMAX_HISTORY: 5\nDEBUG: true\nSTORAGE_BACKEND: sqlite\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MAX_HISTORY", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GeminiModel != "file-model" {
		t.Errorf("model = %s", cfg.GeminiModel)
	}
	if cfg.MaxHistory != 7 {
		t.Errorf("env should override file, got %d", cfg.MaxHistory)
	}
	if !cfg.Debug || cfg.StorageBackend != "sqlite" {
		t.Errorf("debug = %v backend = %s", cfg.Debug, cfg.StorageBackend)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "backend", env: map[string]string{"STORAGE_BACKEND": "postgres"}},
		{name: "transport", env: map[string]string{"GEMINI_TRANSPORT": "grpc"}},
		{name: "chat id", env: map[string]string{"TELEGRAM_CHAT_ID": "abc"}},
		{name: "token without chat", env: map[string]string{"TELEGRAM_BOT_TOKEN": "t"}},
		{name: "missing file", env: map[string]string{"CONFIG_FILE": "/does/not/exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadClampsValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_HISTORY", "-3")
	t.Setenv("MAX_UPLOAD_MB", "0")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "nope")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxHistory != 0 || cfg.MaxUploadMB != 1 || cfg.HTTPTimeout != 180*time.Second {
		t.Errorf("clamped = %d %d %v", cfg.MaxHistory, cfg.MaxUploadMB, cfg.HTTPTimeout)
	}
}
