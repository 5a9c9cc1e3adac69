package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"home-rugs-studio/internal/room"
)

const (
	DefaultMaxBytes    = 20 << 20
	defaultConcurrency = 4
)

var (
	ErrTooLarge = errors.New("upload: file too large")
	ErrNotImage = errors.New("upload: not an image")
)

// Source is one user-provided file.
type Source struct {
	Name     string
	MimeType string
	Open     func() (io.ReadCloser, error)
}

func FileSource(path string) Source {
	return Source{
		Name:     filepath.Base(path),
		MimeType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Open:     func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

func MultipartSource(fh *multipart.FileHeader) Source {
	return Source{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func BytesSource(name, mimeType string, data []byte) Source {
	return Source{
		Name:     name,
		MimeType: mimeType,
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

type Options struct {
	MaxBytes    int64
	Concurrency int
	Logger      *slog.Logger
}

// Reader turns sources into base64 images.
type Reader struct {
	maxBytes    int64
	concurrency int
	logger      *slog.Logger
}

func NewReader(opts Options) *Reader {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reader{maxBytes: maxBytes, concurrency: concurrency, logger: logger}
}

// ReadAll reads every source concurrently and returns once all reads have
// finished. The result keeps the input order; sources that fail are left out.
func (r *Reader) ReadAll(ctx context.Context, sources []Source) []room.Image {
	results := make([]*room.Image, len(sources))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			img, err := r.Read(src)
			if err != nil {
				r.logger.Warn("upload read failed", "name", src.Name, "err", err)
				return nil
			}
			results[i] = &img
			return nil
		})
	}
	_ = g.Wait()

	out := make([]room.Image, 0, len(sources))
	for _, img := range results {
		if img != nil {
			out = append(out, *img)
		}
	}
	return out
}

// Read loads a single source and checks that it decodes as an image.
func (r *Reader) Read(src Source) (room.Image, error) {
	if src.Open == nil {
		return room.Image{}, fmt.Errorf("source %q has no opener", src.Name)
	}
	rc, err := src.Open()
	if err != nil {
		return room.Image{}, fmt.Errorf("open %s: %w", src.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, r.maxBytes+1))
	if err != nil {
		return room.Image{}, fmt.Errorf("read %s: %w", src.Name, err)
	}
	if int64(len(data)) > r.maxBytes {
		return room.Image{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, src.Name, r.maxBytes)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return room.Image{}, fmt.Errorf("%w: %s: %v", ErrNotImage, src.Name, err)
	}

	return room.Image{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mediaType(src.MimeType, format, data),
	}, nil
}

func mediaType(declared, format string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	if format != "" {
		return "image/" + format
	}
	return http.DetectContentType(data)
}
