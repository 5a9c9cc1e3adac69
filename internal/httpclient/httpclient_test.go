package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestUserAgent(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	client := New(Options{UserAgent: "home-rugs-studio/dev", Timeout: 5 * time.Second})

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "custom")
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if len(got) != 2 || got[0] != "home-rugs-studio/dev" || got[1] != "custom" {
		t.Errorf("user agents = %v", got)
	}
}

func TestDefaultTimeout(t *testing.T) {
	if c := New(Options{}); c.Timeout != 180*time.Second {
		t.Errorf("timeout = %v", c.Timeout)
	}
}
