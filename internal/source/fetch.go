// Package source retrieves a dataset from a URL into a local file and
// unpacks zip archives.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lucasnoah/mlfactory/internal/objectstore"
)

// Fetcher downloads sources by scheme: http and https over HTTP, s3 through
// an object store, file or a bare path by copying.
type Fetcher struct {
	Client *http.Client
	// Objects serves s3:// sources. When nil, one is built from the
	// MLFACTORY_S3_* environment on first use.
	Objects objectstore.Store
	Logger  *slog.Logger
}

// NewFetcher returns a Fetcher with a default HTTP client.
func NewFetcher(logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{
		Client: &http.Client{Timeout: 5 * time.Minute},
		Logger: logger,
	}
}

// Fetch copies src to dst and returns the number of bytes written. dst is
// replaced atomically; a failed fetch leaves no partial file behind.
func (f *Fetcher) Fetch(ctx context.Context, src, dst string) (int64, error) {
	u, err := url.Parse(src)
	if err != nil {
		return 0, fmt.Errorf("parse source %q: %w", src, err)
	}

	var body io.ReadCloser
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		body, err = f.openHTTP(ctx, src)
	case "s3":
		body, err = f.openObject(ctx, src)
	case "file":
		body, err = os.Open(u.Path)
	case "":
		body, err = os.Open(src)
	default:
		return 0, fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
	if err != nil {
		return 0, fmt.Errorf("open source %s: %w", src, err)
	}
	defer body.Close()

	n, err := writeStream(dst, body)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", src, err)
	}
	f.logger().Info("source fetched", "source", src, "path", dst, "bytes", n)
	return n, nil
}

func (f *Fetcher) openHTTP(ctx context.Context, src string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func (f *Fetcher) openObject(ctx context.Context, src string) (io.ReadCloser, error) {
	bucket, key, err := objectstore.ParseURL(src)
	if err != nil {
		return nil, err
	}
	if f.Objects == nil {
		cfg, err := objectstore.ConfigFromEnv()
		if err != nil {
			return nil, fmt.Errorf("object store config: %w", err)
		}
		store, err := objectstore.NewMinioStore(cfg)
		if err != nil {
			return nil, err
		}
		f.Objects = store
	}
	return f.Objects.Get(ctx, bucket, key)
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return f.Logger
}

// writeStream streams r into a temp file next to dst and renames it into place.
func writeStream(dst string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return 0, fmt.Errorf("rename %s -> %s: %w", tmpName, dst, err)
	}
	tmpName = ""
	return n, nil
}
