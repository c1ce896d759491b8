// Package fetch makes sure the KEGG catalog files exist locally before a
// build, downloading the ones that are missing.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/keggnet/pkg/keggnet/internalerr"
)

const userAgent = "keggnet/1.0 (metabolic-network builder)"

// maxIndexSize bounds how much of a directory listing page is read.
const maxIndexSize = 4 << 20

// Fetcher downloads named resources into a data directory.
type Fetcher struct {
	dataDir string
	sources map[string]string
	client  *http.Client
	log     *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// New creates a Fetcher. sources maps a resource name to its URL; a URL
// ending in "/" is a directory listing in which the resource is looked up
// by name.
func New(dataDir string, sources map[string]string, opts ...Option) *Fetcher {
	f := &Fetcher{
		dataDir: dataDir,
		sources: sources,
		client:  &http.Client{Timeout: 5 * time.Minute},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns where a resource is stored locally.
func (f *Fetcher) Path(name string) string {
	return filepath.Join(f.dataDir, name)
}

// Missing returns the names that have no local file yet.
func (f *Fetcher) Missing(names []string) ([]string, error) {
	var missing []string
	for _, name := range names {
		_, err := os.Stat(f.Path(name))
		switch {
		case err == nil:
		case os.IsNotExist(err):
			missing = append(missing, name)
		default:
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
	}
	return missing, nil
}

// FetchIfMissing downloads only the resources without a local file.
func (f *Fetcher) FetchIfMissing(ctx context.Context, names []string) error {
	missing, err := f.Missing(names)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		f.log.Info("no file to be updated", zap.Strings("resources", names))
		return nil
	}
	return f.Fetch(ctx, missing)
}

// Fetch downloads every named resource, replacing local copies.
func (f *Fetcher) Fetch(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, ok := f.sources[name]; !ok {
			return fmt.Errorf("%w: unknown resource %q", internalerr.ErrInvalidInput, name)
		}
	}
	if err := os.MkdirAll(f.dataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	f.log.Info("updating files", zap.Strings("resources", names))

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range slices.Compact(slices.Sorted(slices.Values(names))) {
		g.Go(func() error {
			return f.download(ctx, name)
		})
	}
	return g.Wait()
}

func (f *Fetcher) download(ctx context.Context, name string) error {
	src := f.sources[name]
	if strings.HasSuffix(src, "/") {
		resolved, err := f.resolveIndex(ctx, src, name)
		if err != nil {
			return err
		}
		src = resolved
	}

	f.log.Info("downloading", zap.String("resource", name), zap.String("url", src))
	start := time.Now()

	resp, err := f.get(ctx, src)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(f.dataDir, name+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("download %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.Path(name)); err != nil {
		return fmt.Errorf("install %s: %w", name, err)
	}

	f.log.Info("downloaded",
		zap.String("resource", name),
		zap.Int64("bytes", n),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp, nil
}

// resolveIndex finds the link to name on a directory listing page.
func (f *Fetcher) resolveIndex(ctx context.Context, indexURL, name string) (string, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}

	resp, err := f.get(ctx, indexURL)
	if err != nil {
		return "", fmt.Errorf("fetch index for %s: %w", name, err)
	}
	defer resp.Body.Close()

	doc, err := html.Parse(io.LimitReader(resp.Body, maxIndexSize))
	if err != nil {
		return "", fmt.Errorf("parse index for %s: %w", name, err)
	}

	for _, href := range hrefs(doc) {
		u, err := base.Parse(href)
		if err != nil {
			continue
		}
		if !strings.HasSuffix(u.Path, "/") && path.Base(u.Path) == name {
			return u.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s not listed at %s", internalerr.ErrNotFound, name, indexURL)
}

// hrefs collects the href attributes of every anchor in document order.
func hrefs(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					out = append(out, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}
