package proxy

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
)

type seen struct {
	method, path, query, contentType, ifNoneMatch string
	body                                          []byte
	file                                          string
}

func upstream(t *testing.T, got *seen) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.contentType = r.Header.Get("Content-Type")
		got.ifNoneMatch = r.Header.Get("If-None-Match")

		if strings.HasPrefix(got.contentType, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err == nil {
				data, _ := io.ReadAll(f)
				got.file = string(data)
				f.Close()
			}
		} else {
			got.body, _ = io.ReadAll(r.Body)
		}

		w.Header().Set("ETag", `"rev-1"`)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newApp(baseURL string) *fiber.App {
	app := fiber.New()
	h := ProxyPrefix(baseURL, "/api/v1")
	app.All("/api/v1/scenes", h)
	app.All("/api/v1/scenes/*", h)
	return app
}

func TestTargetURL(t *testing.T) {
	cases := []struct {
		base, path, query, want string
	}{
		{"http://svc:3003", "/scenes", "", "http://svc:3003/scenes"},
		{"http://svc:3003/", "scenes/1", "w=10", "http://svc:3003/scenes/1?w=10"},
	}
	for _, tc := range cases {
		if got := TargetURL(tc.base, tc.path, tc.query); got != tc.want {
			t.Errorf("TargetURL(%q, %q, %q) = %q, want %q", tc.base, tc.path, tc.query, got, tc.want)
		}
	}
}

func TestProxyRaw(t *testing.T) {
	var got seen
	srv := upstream(t, &got)
	app := newApp(srv.URL)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/scenes/42/objects/7?fit=true", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("If-None-Match", `"rev-0"`)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)

	if got.method != http.MethodPatch || got.path != "/scenes/42/objects/7" || got.query != "fit=true" {
		t.Fatalf("upstream saw %s %s?%s", got.method, got.path, got.query)
	}
	if string(got.body) != `{"name":"x"}` || got.ifNoneMatch != `"rev-0"` {
		t.Fatalf("body/header not forwarded: %q %q", got.body, got.ifNoneMatch)
	}
	if resp.StatusCode != http.StatusAccepted || resp.Header.Get("ETag") != `"rev-1"` || string(body) != `{"ok":true}` {
		t.Fatalf("response not copied: %d %q %s", resp.StatusCode, resp.Header.Get("ETag"), body)
	}
}

func TestProxyMultipart(t *testing.T) {
	var got seen
	srv := upstream(t, &got)
	app := newApp(srv.URL)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", "board.svg")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("<svg/>"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scenes/42/import", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if _, err := app.Test(req); err != nil {
		t.Fatal(err)
	}

	if got.path != "/scenes/42/import" || got.file != "<svg/>" {
		t.Fatalf("multipart not forwarded: path=%s file=%q", got.path, got.file)
	}
}

func TestProxyUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	app := newApp(srv.URL)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/scenes", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
