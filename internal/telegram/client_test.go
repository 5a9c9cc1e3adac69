package telegram

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"home-rugs-studio/internal/room"
)

func TestTruncateByBytesKeepsRunes(t *testing.T) {
	got := truncateByBytes("ääää", 5)
	if got != "ää" {
		t.Errorf("got %q", got)
	}
	if truncateByBytes("short", 10) != "short" {
		t.Error("short caption changed")
	}
}

func TestSendPhoto(t *testing.T) {
	var methods []string
	var caption string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]
		methods = append(methods, method)

		switch method {
		case "getMe":
			io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"studio","username":"studio_bot"}}`)
		case "sendPhoto":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse form: %v", err)
			}
			caption = r.FormValue("caption")
			io.WriteString(w, `{"ok":true,"result":{"message_id":7,"chat":{"id":42}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := New(Options{Token: "t", Endpoint: srv.URL + "/bot%s/%s", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatal(err)
	}
	if c.Username() != "studio_bot" {
		t.Errorf("username = %q", c.Username())
	}

	img := room.Image{Data: base64.StdEncoding.EncodeToString([]byte("png")), MimeType: "image/png"}
	if err := c.SendPhoto(42, img, "home-rugs-1.png", "16:9 · 50mm"); err != nil {
		t.Fatal(err)
	}
	if caption != "16:9 · 50mm" {
		t.Errorf("caption = %q", caption)
	}
	if len(methods) != 2 || methods[1] != "sendPhoto" {
		t.Errorf("methods = %v", methods)
	}
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Options{HTTPClient: http.DefaultClient}); err == nil {
		t.Fatal("expected error")
	}
}
