package telegram

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"home-rugs-studio/internal/room"
)

const maxCaptionBytes = 1024

type Options struct {
	Token string
	// Endpoint overrides tgbotapi.APIEndpoint; it must contain two %s verbs
	// for the token and the method.
	Endpoint   string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Debug      bool
}

// Client sends finished images to a Telegram chat.
type Client struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, endpoint, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	bot.Debug = opts.Debug

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{bot: bot, logger: logger}, nil
}

func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// SendPhoto uploads img to chatID. Captions longer than Telegram allows are
// cut on a rune boundary.
func (c *Client) SendPhoto(chatID int64, img room.Image, name string, caption string) error {
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return fmt.Errorf("decode base64: %w", err)
	}

	if name == "" {
		name = "image.png"
		if exts, _ := mime.ExtensionsByType(img.MimeType); len(exts) > 0 {
			name = "image" + exts[0]
		}
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	if caption != "" {
		photo.Caption = truncateByBytes(caption, maxCaptionBytes)
	}

	if _, err := c.bot.Send(photo); err != nil {
		return fmt.Errorf("telegram send photo: %w", err)
	}
	c.logger.Info("telegram photo sent", "chat_id", chatID, "bytes", len(data))
	return nil
}

func truncateByBytes(text string, maxBytes int) string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return text
	}

	var buf strings.Builder
	buf.Grow(maxBytes)
	for _, r := range text {
		if buf.Len()+utf8.RuneLen(r) > maxBytes {
			break
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
