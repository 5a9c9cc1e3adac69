package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"home-rugs-studio/internal/config"
	"home-rugs-studio/internal/credential"
	"home-rugs-studio/internal/export"
	"home-rugs-studio/internal/gemini"
	"home-rugs-studio/internal/httpclient"
	"home-rugs-studio/internal/kv"
	"home-rugs-studio/internal/logging"
	"home-rugs-studio/internal/presets"
	"home-rugs-studio/internal/studio"
	"home-rugs-studio/internal/telegram"
	"home-rugs-studio/internal/upload"
)

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	httpClient *http.Client
	store      kv.Store
	presets    *presets.Store
	creds      *credential.Store
	uploads    *upload.Reader
	session    *studio.Session
	exporters  map[string]export.Exporter

	closers []io.Closer
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, logCloser := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	a := &app{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	a.httpClient = httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		UserAgent:  "home-rugs-studio/" + version,
	})

	a.store, err = kv.Open(ctx, kv.Options{
		Backend:       cfg.StorageBackend,
		Dir:           cfg.DataDir,
		SQLitePath:    cfg.SQLitePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageBackend, err)
	}
	a.closers = append(a.closers, a.store)

	a.presets = presets.New(ctx, a.store, presets.Options{Logger: logger})

	var verifier credential.Verifier
	if cfg.VerifyCredential {
		verifier = credential.GenAIVerifier{Model: cfg.GeminiModel}
	}
	a.creds = credential.New(credential.Options{
		EnvKey:   cfg.GeminiAPIKey,
		Verifier: verifier,
		Logger:   logger,
	})

	genOpts := gemini.Options{
		Keys:       a.creds,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		Model:      cfg.GeminiModel,
		ImageSize:  cfg.GeminiImageSize,
		HTTPClient: a.httpClient,
		Logger:     logger,
	}
	var gen studio.Generator = gemini.New(genOpts)
	if cfg.GeminiTransport == "sdk" {
		gen = gemini.NewSDK(genOpts)
	}

	a.uploads = upload.NewReader(upload.Options{
		MaxBytes: int64(cfg.MaxUploadMB) << 20,
		Logger:   logger,
	})

	a.session = studio.New(studio.Options{
		Generator:    gen,
		Credentials:  a.creds,
		Presets:      a.presets,
		HistoryLimit: cfg.MaxHistory,
		Logger:       logger,
	})

	a.exporters = map[string]export.Exporter{
		"file": export.FileExporter{Dir: cfg.ExportDir},
	}
	if cfg.TelegramToken != "" {
		tg, err := telegram.New(telegram.Options{
			Token:      cfg.TelegramToken,
			HTTPClient: a.httpClient,
			Logger:     logger,
			Debug:      cfg.Debug,
		})
		if err != nil {
			logger.Warn("telegram export disabled", "err", err)
		} else {
			a.exporters["telegram"] = export.TelegramExporter{Sender: tg, ChatID: cfg.TelegramChatID}
		}
	}

	return a, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
