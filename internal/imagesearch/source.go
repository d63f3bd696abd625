package imagesearch

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotApplicable is returned by a source that has nothing to offer for a
// request, for example the reference source when a card names no image.
// It is not counted as a failed attempt.
var ErrNotApplicable = errors.New("source not applicable")

// Request describes the image wanted for one card
type Request struct {
	Key       string // Cache key: the reference when set, else the query
	Query     string // Normalised search query, may be empty
	Reference string // Explicit image path or URL from the card
	BaseDir   string // Directory relative references resolve against
	Width     int
	Height    int
}

// Source is one way of obtaining image bytes
type Source interface {
	Name() string
	Fetch(ctx context.Context, f *Fetcher, req Request) ([]byte, error)
}

// Storer is implemented by sources that can persist an image found elsewhere
type Storer interface {
	Store(key string, data []byte) error
}

// IsURL reports whether ref is an http(s) URL
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// ResolveReference returns the filesystem path for a local reference
func ResolveReference(ref, baseDir string) string {
	if filepath.IsAbs(ref) || baseDir == "" {
		return ref
	}
	return filepath.Join(baseDir, ref)
}

func keyHash(key string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(key)))
}

// ReferenceSource loads the image a card names explicitly
type ReferenceSource struct{}

func (ReferenceSource) Name() string { return "reference" }

func (ReferenceSource) Fetch(ctx context.Context, f *Fetcher, req Request) ([]byte, error) {
	if req.Reference == "" {
		return nil, ErrNotApplicable
	}
	if IsURL(req.Reference) {
		return f.Get(ctx, req.Reference, nil)
	}
	data, err := os.ReadFile(ResolveReference(req.Reference, req.BaseDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// DiskSource is a persistent cache directory shared between runs. Files are
// named by the md5 of the request key.
type DiskSource struct {
	Dir string
}

func (d DiskSource) Name() string { return "disk" }

func (d DiskSource) path(key string) string {
	return filepath.Join(d.Dir, keyHash(key)+".img")
}

func (d DiskSource) Fetch(_ context.Context, _ *Fetcher, req Request) ([]byte, error) {
	if d.Dir == "" || req.Key == "" {
		return nil, ErrNotApplicable
	}
	data, err := os.ReadFile(d.path(req.Key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotApplicable
	}
	return data, err
}

// Store writes data under key, replacing any previous entry
func (d DiskSource) Store(key string, data []byte) error {
	if d.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(d.Dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), d.path(key))
}

// UnsplashSource queries the Unsplash search API. It needs an access key.
type UnsplashSource struct {
	AccessKey string
	BaseURL   string // Defaults to https://api.unsplash.com
}

func (u UnsplashSource) Name() string { return "unsplash" }

type unsplashSearchResponse struct {
	Results []struct {
		URLs struct {
			Small   string `json:"small"`
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

func (u UnsplashSource) Fetch(ctx context.Context, f *Fetcher, req Request) ([]byte, error) {
	if u.AccessKey == "" || req.Query == "" {
		return nil, ErrNotApplicable
	}

	base := u.BaseURL
	if base == "" {
		base = "https://api.unsplash.com"
	}
	params := url.Values{}
	params.Set("query", req.Query)
	params.Set("per_page", "1")
	params.Set("orientation", "landscape")
	searchURL := strings.TrimSuffix(base, "/") + "/search/photos?" + params.Encode()

	header := http.Header{}
	header.Set("Authorization", "Client-ID "+u.AccessKey)
	header.Set("Accept-Version", "v1")

	body, err := f.Get(ctx, searchURL, header)
	if err != nil {
		return nil, err
	}

	var result unsplashSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode unsplash response: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, fmt.Errorf("no unsplash results for %q", req.Query)
	}

	imageURL := result.Results[0].URLs.Small
	if imageURL == "" {
		imageURL = result.Results[0].URLs.Regular
	}
	if imageURL == "" {
		return nil, fmt.Errorf("unsplash result for %q has no image url", req.Query)
	}
	return f.Get(ctx, imageURL, nil)
}

// PicsumSource returns a placeholder photo seeded by the query, so the same
// query always maps to the same picture.
type PicsumSource struct {
	BaseURL string // Defaults to https://picsum.photos
}

func (p PicsumSource) Name() string { return "picsum" }

func (p PicsumSource) Fetch(ctx context.Context, f *Fetcher, req Request) ([]byte, error) {
	if req.Query == "" {
		return nil, ErrNotApplicable
	}
	base := p.BaseURL
	if base == "" {
		base = "https://picsum.photos"
	}
	w, h := req.Width, req.Height
	if w <= 0 || h <= 0 {
		w, h = 400, 300
	}
	u := fmt.Sprintf("%s/seed/%s/%d/%d", strings.TrimSuffix(base, "/"), keyHash(req.Query), w, h)
	return f.Get(ctx, u, nil)
}
