package export

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"home-rugs-studio/internal/room"
)

var ErrNoData = errors.New("export: image has no data")

// Exporter delivers a finished image somewhere outside the session.
type Exporter interface {
	Export(ctx context.Context, img room.GeneratedImage) (string, error)
}

// Filename is the download name for img: home-rugs-<id>.<ext>.
func Filename(img room.GeneratedImage) string {
	return "home-rugs-" + img.ID + extension(img.MimeType)
}

func extension(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "", "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		return exts[0]
	}
	return ".png"
}

// Decode returns the raw bytes of img.
func Decode(img room.GeneratedImage) ([]byte, error) {
	if img.Data == "" {
		return nil, ErrNoData
	}
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", img.ID, err)
	}
	return data, nil
}

// Caption summarises the parameters that produced img.
func Caption(img room.GeneratedImage) string {
	cfg := img.Config
	parts := []string{
		string(cfg.AspectRatio),
		room.LensDescription(cfg.Lens),
		room.AngleLabel(cfg.Angle),
	}
	if len(cfg.Lighting) > 0 {
		names := make([]string, 0, len(cfg.Lighting))
		for _, l := range cfg.Lighting {
			names = append(names, string(l))
		}
		parts = append(parts, strings.Join(names, ", "))
	}
	return strings.Join(parts, " · ")
}

// FileExporter writes images into Dir.
type FileExporter struct {
	Dir string
}

func (e FileExporter) Export(_ context.Context, img room.GeneratedImage) (string, error) {
	data, err := Decode(img)
	if err != nil {
		return "", err
	}
	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, Filename(img))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// PhotoSender is the part of the Telegram client the exporter needs.
type PhotoSender interface {
	SendPhoto(chatID int64, img room.Image, name string, caption string) error
}

type TelegramExporter struct {
	Sender PhotoSender
	ChatID int64
}

func (e TelegramExporter) Export(_ context.Context, img room.GeneratedImage) (string, error) {
	if img.Data == "" {
		return "", ErrNoData
	}
	if e.Sender == nil || e.ChatID == 0 {
		return "", errors.New("telegram export is not configured")
	}
	name := Filename(img)
	if err := e.Sender.SendPhoto(e.ChatID, img.Image(), name, Caption(img)); err != nil {
		return "", err
	}
	return fmt.Sprintf("telegram:%d/%s", e.ChatID, name), nil
}
