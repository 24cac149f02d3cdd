package bitmap

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newServer(t *testing.T) *httptest.Server {
	data := pngBytes(t, 8, 4)
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	})
	mux.HandleFunc("/garbage.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an image"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchDecodes(t *testing.T) {
	srv := newServer(t)
	l := NewLoader(srv.Client(), time.Second, 2)

	img, err := l.Fetch(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Fatalf("bounds = %v", b)
	}

	if _, err := l.Fetch(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Fatal("expected error for 404")
	}
	if _, err := l.Fetch(context.Background(), srv.URL+"/garbage.png"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoadCallsBack(t *testing.T) {
	srv := newServer(t)
	l := NewLoader(srv.Client(), time.Second, 1)

	done := make(chan Result, 1)
	l.Load(context.Background(), Request{ObjectID: "o1", URL: srv.URL + "/ok.png"}, func(r Result) { done <- r })

	select {
	case r := <-done:
		if r.Err != nil || r.Image == nil || r.ObjectID != "o1" {
			t.Fatalf("result = %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("load never completed")
	}
}

func TestPreloadReportsEveryRequest(t *testing.T) {
	srv := newServer(t)
	l := NewLoader(srv.Client(), time.Second, 2)

	reqs := []Request{
		{ObjectID: "a", URL: srv.URL + "/ok.png"},
		{ObjectID: "b", URL: srv.URL + "/missing.png"},
		{ObjectID: "c", URL: srv.URL + "/ok.png"},
	}

	var mu sync.Mutex
	got := map[string]bool{}
	err := l.Preload(context.Background(), reqs, func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		got[r.ObjectID] = r.Err == nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || !got["a"] || got["b"] || !got["c"] {
		t.Fatalf("results = %v", got)
	}
}
