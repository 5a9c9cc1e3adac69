package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadAllKeepsOrderAndDropsFailures(t *testing.T) {
	first := pngBytes(t, 1, 1)
	second := pngBytes(t, 2, 2)
	sources := []Source{
		BytesSource("a.png", "", first),
		BytesSource("notes.txt", "text/plain", []byte("hello")),
		{Name: "broken", Open: func() (io.ReadCloser, error) { return nil, errors.New("boom") }},
		BytesSource("b.png", "image/png", second),
	}

	got := NewReader(Options{Concurrency: 2}).ReadAll(context.Background(), sources)

	if len(got) != 2 {
		t.Fatalf("got %d images", len(got))
	}
	if got[0].Data != base64.StdEncoding.EncodeToString(first) {
		t.Error("first image out of order")
	}
	if got[1].Data != base64.StdEncoding.EncodeToString(second) {
		t.Error("second image out of order")
	}
	if got[0].MimeType != "image/png" {
		t.Errorf("sniffed mime = %q", got[0].MimeType)
	}
}

func TestReadRejectsOversizedFile(t *testing.T) {
	r := NewReader(Options{MaxBytes: 10})

	_, err := r.Read(BytesSource("big.png", "image/png", pngBytes(t, 8, 8)))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadRejectsNonImage(t *testing.T) {
	_, err := NewReader(Options{}).Read(BytesSource("x.png", "image/png", []byte("not really")))
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("err = %v", err)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rug.png")
	if err := os.WriteFile(path, pngBytes(t, 3, 3), 0o600); err != nil {
		t.Fatal(err)
	}

	img, err := NewReader(Options{}).Read(FileSource(path))
	if err != nil {
		t.Fatal(err)
	}
	if img.MimeType != "image/png" {
		t.Errorf("mime = %q", img.MimeType)
	}
}

func TestReadAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewReader(Options{}).ReadAll(ctx, []Source{BytesSource("a.png", "", pngBytes(t, 1, 1))})
	if len(got) != 0 {
		t.Errorf("cancelled read returned %d images", len(got))
	}
}
