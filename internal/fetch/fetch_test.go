package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cognicore/keggnet/pkg/keggnet/internalerr"
)

const listing = `<html><body>
<h1>Index of /pub/kegg/ligand/compound/</h1>
<a href="../">Parent Directory</a>
<a href="compound.inchi">compound.inchi</a>
<a href="compound/">compound/</a>
<a href="compound">compound</a>
</body></html>`

func newServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ligand/compound/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("request without User-Agent")
		}
		switch r.URL.Path {
		case "/ligand/compound/":
			w.Write([]byte(listing))
		case "/ligand/compound/compound":
			hits.Add(1)
			w.Write([]byte("ENTRY       C00001\n///\n"))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/ligand/enzyme/enzyme", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("ENTRY       EC 1.1.1.1\n///\n"))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newFetcher(t *testing.T, srv *httptest.Server) (*Fetcher, string) {
	dir := filepath.Join(t.TempDir(), "data")
	f := New(dir, map[string]string{
		"compound": srv.URL + "/ligand/compound/",
		"enzyme":   srv.URL + "/ligand/enzyme/enzyme",
		"broken":   srv.URL + "/broken",
	}, WithHTTPClient(srv.Client()))
	return f, dir
}

func TestFetchIfMissingDownloads(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	f, dir := newFetcher(t, srv)

	if err := f.FetchIfMissing(context.Background(), []string{"compound", "enzyme"}); err != nil {
		t.Fatalf("FetchIfMissing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "compound"))
	if err != nil {
		t.Fatalf("compound not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "ENTRY       C00001") {
		t.Errorf("unexpected compound content %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "enzyme")); err != nil {
		t.Errorf("enzyme not written: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 downloads, got %d", hits.Load())
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.part"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestFetchIfMissingSkipsPresent(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	f, dir := newFetcher(t, srv)

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "enzyme"), []byte("local"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := f.FetchIfMissing(context.Background(), []string{"compound", "enzyme"}); err != nil {
		t.Fatalf("FetchIfMissing: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected only the missing file to be fetched, got %d downloads", hits.Load())
	}
	data, _ := os.ReadFile(filepath.Join(dir, "enzyme"))
	if string(data) != "local" {
		t.Error("present file should not be replaced")
	}

	// Nothing missing now.
	if err := f.FetchIfMissing(context.Background(), []string{"compound", "enzyme"}); err != nil {
		t.Fatalf("FetchIfMissing: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected no further downloads, got %d", hits.Load())
	}
}

func TestFetchForcesReplace(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	f, dir := newFetcher(t, srv)

	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "enzyme"), []byte("stale"), 0644)

	if err := f.Fetch(context.Background(), []string{"enzyme"}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "enzyme"))
	if string(data) == "stale" {
		t.Error("forced fetch should replace the local file")
	}
}

func TestFetchUnknownResource(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	f, _ := newFetcher(t, srv)

	err := f.Fetch(context.Background(), []string{"reaction"})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFetchHTTPError(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	f, dir := newFetcher(t, srv)

	if err := f.Fetch(context.Background(), []string{"broken"}); err == nil {
		t.Fatal("expected error for HTTP 410")
	}
	if _, err := os.Stat(filepath.Join(dir, "broken")); !os.IsNotExist(err) {
		t.Error("failed download must not leave a file behind")
	}
}

func TestResolveIndexNotListed(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	f, _ := newFetcher(t, srv)

	_, err := f.resolveIndex(context.Background(), srv.URL+"/ligand/compound/", "glycan")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveIndexSkipsDirectories(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	f, _ := newFetcher(t, srv)

	got, err := f.resolveIndex(context.Background(), srv.URL+"/ligand/compound/", "compound")
	if err != nil {
		t.Fatalf("resolveIndex: %v", err)
	}
	if got != srv.URL+"/ligand/compound/compound" {
		t.Errorf("resolved %q", got)
	}
}

func TestMissing(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "compound"), nil, 0644)

	missing, err := New(dir, nil).Missing([]string{"compound", "enzyme"})
	if err != nil {
		t.Fatalf("Missing: %v", err)
	}
	if len(missing) != 1 || missing[0] != "enzyme" {
		t.Errorf("Missing = %v, want [enzyme]", missing)
	}
}
