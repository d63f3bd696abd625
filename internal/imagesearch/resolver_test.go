package imagesearch

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/arcanaland/cardforge/internal/card"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// imageServer serves a PNG on every path and counts requests
func imageServer(t *testing.T, w, h int) (*httptest.Server, *int64) {
	t.Helper()
	data := pngBytes(t, w, h)
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		rw.Header().Set("Content-Type", "image/png")
		rw.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func failingServer(t *testing.T) (*httptest.Server, *int64) {
	t.Helper()
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.Error(rw, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

var lightning = card.Card{Title: "Lightning Bolt", Body: card.Body{Effect: "Deal 3 damage"}}

func TestResolve_IdenticalQueriesFetchOnce(t *testing.T) {
	srv, hits := imageServer(t, 40, 30)
	r := NewResolver(nil, []Source{PicsumSource{BaseURL: srv.URL}}, WithMinInterval(0))

	first, err := r.Resolve(context.Background(), lightning, "")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	twin := lightning
	twin.Footer = "other footer"
	second, err := r.Resolve(context.Background(), twin, "")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if got := atomic.LoadInt64(hits); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
	if first != second {
		t.Error("second resolution should return the cached image")
	}
	if r.Cache().Hits() != 1 || r.Cache().Misses() != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", r.Cache().Hits(), r.Cache().Misses())
	}
	if r.Cache().Len() != 1 {
		t.Errorf("cache keys = %d, want 1", r.Cache().Len())
	}
}

func TestResolve_FallsThroughSources(t *testing.T) {
	bad, badHits := failingServer(t)
	good, _ := imageServer(t, 20, 20)

	r := NewResolver(nil, []Source{
		UnsplashSource{AccessKey: "k", BaseURL: bad.URL},
		PicsumSource{BaseURL: good.URL},
	}, WithMinInterval(0))

	img, err := r.Resolve(context.Background(), lightning, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if img.Source != "picsum" {
		t.Errorf("source = %q, want picsum", img.Source)
	}
	if atomic.LoadInt64(badHits) != 1 {
		t.Errorf("failing source should have been tried once")
	}
}

func TestResolve_AllSourcesFail(t *testing.T) {
	bad, hits := failingServer(t)
	r := NewResolver(nil, []Source{PicsumSource{BaseURL: bad.URL}}, WithMinInterval(0))

	img, err := r.Resolve(context.Background(), lightning, "")
	if img != nil {
		t.Error("expected no image")
	}
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if len(re.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(re.Attempts))
	}

	// The failure is cached
	img, err = r.Resolve(context.Background(), lightning, "")
	if img != nil || err != nil {
		t.Errorf("cached failure = %v, %v; want nil, nil", img, err)
	}
	if atomic.LoadInt64(hits) != 1 {
		t.Errorf("fetches = %d, want 1", atomic.LoadInt64(hits))
	}
}

func TestResolve_EmptyKey(t *testing.T) {
	srv, hits := imageServer(t, 10, 10)
	r := NewResolver(nil, []Source{PicsumSource{BaseURL: srv.URL}}, WithMinInterval(0))

	img, err := r.Resolve(context.Background(), card.Card{Title: "Ox"}, "")
	if img != nil || err != nil {
		t.Errorf("Resolve = %v, %v; want nil, nil", img, err)
	}
	if atomic.LoadInt64(hits) != 0 {
		t.Error("no fetch expected for an empty query")
	}
}

func TestResolve_LocalReference(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "art.png"), pngBytes(t, 12, 8), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(nil, []Source{ReferenceSource{}}, WithMinInterval(0))
	img, err := r.Resolve(context.Background(), card.Card{Title: "A", Image: "art.png"}, dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if img.Key != "art.png" || img.Source != "reference" {
		t.Errorf("image = %+v", img)
	}
	if b := img.Img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Errorf("bounds = %v", b)
	}
}

func TestResolve_StoresToDisk(t *testing.T) {
	srv, hits := imageServer(t, 16, 16)
	cacheDir := t.TempDir()

	r := NewResolver(nil, []Source{
		DiskSource{Dir: cacheDir},
		PicsumSource{BaseURL: srv.URL},
	}, WithMinInterval(0))
	if _, err := r.Resolve(context.Background(), lightning, ""); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".img") {
		t.Fatalf("cache dir entries = %v", entries)
	}

	// A new run finds the image on disk without touching the network
	again := NewResolver(nil, []Source{
		DiskSource{Dir: cacheDir},
		PicsumSource{BaseURL: srv.URL},
	}, WithMinInterval(0))
	img, err := again.Resolve(context.Background(), lightning, "")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if img.Source != "disk" {
		t.Errorf("source = %q, want disk", img.Source)
	}
	if atomic.LoadInt64(hits) != 1 {
		t.Errorf("fetches = %d, want 1", atomic.LoadInt64(hits))
	}
}

func TestResolve_Unsplash(t *testing.T) {
	data := pngBytes(t, 10, 10)
	var auth string
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/photos":
			auth = r.Header.Get("Authorization")
			if r.URL.Query().Get("query") != card.SearchQuery(lightning) {
				http.Error(rw, "bad query", http.StatusBadRequest)
				return
			}
			rw.Write([]byte(`{"results":[{"urls":{"small":"` + srv.URL + `/photo.png"}}]}`))
		case "/photo.png":
			rw.Write(data)
		default:
			http.NotFound(rw, r)
		}
	}))
	defer srv.Close()

	r := NewResolver(nil, []Source{UnsplashSource{AccessKey: "secret", BaseURL: srv.URL}}, WithMinInterval(0))
	img, err := r.Resolve(context.Background(), lightning, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if img.Source != "unsplash" {
		t.Errorf("source = %q", img.Source)
	}
	if auth != "Client-ID secret" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestResolve_UnsplashWithoutKeySkipped(t *testing.T) {
	r := NewResolver(nil, []Source{UnsplashSource{}}, WithMinInterval(0))
	_, err := r.Resolve(context.Background(), lightning, "")
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if len(re.Attempts) != 0 {
		t.Errorf("a source without a key should not count as an attempt: %v", re.Attempts)
	}
}

func TestResolve_BoundsLargeImages(t *testing.T) {
	srv, _ := imageServer(t, 1000, 500)
	r := NewResolver(nil, []Source{PicsumSource{BaseURL: srv.URL}}, WithMinInterval(0), WithMaxSize(100, 100))

	img, err := r.Resolve(context.Background(), lightning, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b := img.Img.Bounds()
	if b.Dx() > 100 || b.Dy() > 100 {
		t.Errorf("bounds = %v, want within 100x100", b)
	}
	if b.Dx() != 100 {
		t.Errorf("width = %d, want 100 (aspect preserved)", b.Dx())
	}
}

func TestResolve_RateLimited(t *testing.T) {
	srv, _ := imageServer(t, 8, 8)
	r := NewResolver(nil, []Source{PicsumSource{BaseURL: srv.URL}}, WithMinInterval(100*time.Millisecond))

	start := time.Now()
	for _, title := range []string{"Lightning Bolt", "Frost Nova", "Stone Wall"} {
		if _, err := r.Resolve(context.Background(), card.Card{Title: title}, ""); err != nil {
			t.Fatalf("Resolve(%s): %v", title, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 180*time.Millisecond {
		t.Errorf("three requests took %v, want at least ~200ms", elapsed)
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	srv, _ := imageServer(t, 8, 8)
	r := NewResolver(nil, []Source{PicsumSource{BaseURL: srv.URL}}, WithMinInterval(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Resolve(ctx, lightning, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewSources(t *testing.T) {
	sources := NewSources([]string{"reference", "disk", "unsplash", "picsum", "bogus"}, "", "")
	var names []string
	for _, s := range sources {
		names = append(names, s.Name())
	}
	if got := strings.Join(names, ","); got != "reference,unsplash,picsum" {
		t.Errorf("sources = %s", got)
	}
}
