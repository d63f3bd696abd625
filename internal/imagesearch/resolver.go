package imagesearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/arcanaland/cardforge/internal/card"
)

// ResolutionError reports that no source produced an image. It is never
// fatal; the card is drawn without art.
type ResolutionError struct {
	Query    string
	Attempts []error
}

func (e *ResolutionError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("no image found for %q", e.Query)
	}
	return fmt.Sprintf("no image found for %q: %v", e.Query, errors.Join(e.Attempts...))
}

func (e *ResolutionError) Unwrap() []error {
	return e.Attempts
}

// Resolver turns cards into images by trying each source in order
type Resolver struct {
	cache       *Cache
	sources     []Source
	fetcher     *Fetcher
	logger      *slog.Logger
	client      *http.Client
	minInterval time.Duration
	maxW, maxH  int
}

// Option configures a Resolver
type Option func(*Resolver)

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithMinInterval sets the minimum spacing between network requests
func WithMinInterval(d time.Duration) Option {
	return func(r *Resolver) { r.minInterval = d }
}

func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithMaxSize bounds decoded images, preserving aspect ratio
func WithMaxSize(w, h int) Option {
	return func(r *Resolver) { r.maxW, r.maxH = w, h }
}

// NewResolver creates a resolver. A nil cache gets a fresh one.
func NewResolver(cache *Cache, sources []Source, opts ...Option) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	r := &Resolver{
		cache:       cache,
		sources:     sources,
		logger:      slog.Default(),
		minInterval: time.Second,
		maxW:        800,
		maxH:        600,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.fetcher = NewFetcher(r.client, r.minInterval)
	return r
}

// Cache returns the resolver's cache
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Key returns the cache key for a card: its explicit image reference, else
// its search query. An empty key means the card cannot have an image.
func Key(c card.Card) string {
	if c.Image != "" {
		return c.Image
	}
	return card.SearchQuery(c)
}

// Resolve finds an image for c. Relative references resolve against baseDir.
// It returns nil, nil when the card has no usable key or the key already
// failed earlier in this run, and a *ResolutionError when every source fails.
func (r *Resolver) Resolve(ctx context.Context, c card.Card, baseDir string) (*Image, error) {
	key := Key(c)
	if key == "" {
		return nil, nil
	}

	if img, ok := r.cache.Get(key); ok {
		r.logger.Debug("image cache hit", "key", key, "found", img != nil)
		return img, nil
	}

	req := Request{
		Key:       key,
		Query:     card.SearchQuery(c),
		Reference: c.Image,
		BaseDir:   baseDir,
		Width:     r.maxW / 2,
		Height:    r.maxH / 2,
	}

	var attempts []error
	for _, src := range r.sources {
		data, err := src.Fetch(ctx, r.fetcher, req)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		if err != nil {
			r.logger.Debug("image source failed", "source", src.Name(), "key", key, "error", err)
			attempts = append(attempts, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		img, err := r.decode(data)
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		if IsURL(c.Image) || c.Image == "" {
			r.persist(src, key, data)
		}

		result := &Image{Key: key, Source: src.Name(), Img: img}
		r.cache.Put(key, result)
		r.logger.Debug("image resolved", "source", src.Name(), "key", key)
		return result, nil
	}

	r.cache.Put(key, nil)
	return nil, &ResolutionError{Query: key, Attempts: attempts}
}

func (r *Resolver) decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if r.maxW > 0 && r.maxH > 0 {
		b := img.Bounds()
		if b.Dx() > r.maxW || b.Dy() > r.maxH {
			img = resize.Thumbnail(uint(r.maxW), uint(r.maxH), img, resize.Lanczos3)
		}
	}
	return img, nil
}

// persist copies a downloaded image into every other source that can store it
func (r *Resolver) persist(from Source, key string, data []byte) {
	for _, src := range r.sources {
		if src == from {
			continue
		}
		storer, ok := src.(Storer)
		if !ok {
			continue
		}
		if err := storer.Store(key, data); err != nil {
			r.logger.Warn("failed to store image", "source", src.Name(), "key", key, "error", err)
		}
	}
}

// NewSources builds the named sources in order. Unknown names are skipped.
func NewSources(names []string, cacheDir, unsplashKey string) []Source {
	var sources []Source
	for _, name := range names {
		switch name {
		case "reference":
			sources = append(sources, ReferenceSource{})
		case "disk":
			if cacheDir != "" {
				sources = append(sources, DiskSource{Dir: cacheDir})
			}
		case "unsplash":
			sources = append(sources, UnsplashSource{AccessKey: unsplashKey})
		case "picsum":
			sources = append(sources, PicsumSource{})
		}
	}
	return sources
}
