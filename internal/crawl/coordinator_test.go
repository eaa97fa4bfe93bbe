package crawl_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mithril-search/mithril/internal/config"
	"github.com/mithril-search/mithril/internal/crawl"
	"github.com/mithril-search/mithril/internal/docstore"
)

func TestCoordinatorCrawlsSeedAndDiscoveredLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nAllow: /\n"))
	})
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Home</title></head><body>
			hello <a href="/other.html">other</a></body></html>`))
	})
	mux.HandleFunc("/other.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Other</title></head><body>world</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "docs.store")

	cfg, err := config.WithDefault([]string{srv.URL + "/index.html"}).
		WithWorkerCount(2).
		WithTargetConcurrent(4).
		WithStorePath(storePath).
		Build()
	require.NoError(t, err)

	store, err := docstore.NewWriter(storePath)
	require.NoError(t, err)

	coordinator := crawl.NewCoordinator(cfg, store, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, coordinator.Run(ctx))
	require.NoError(t, store.Close())

	require.Equal(t, uint32(2), store.Count())

	reader, err := docstore.NewReader(storePath)
	require.NoError(t, err)
	defer reader.Close()
	var urls []string
	for {
		doc, ok, err := reader.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		urls = append(urls, doc.URL())
	}
	require.ElementsMatch(t, []string{srv.URL + "/index.html", srv.URL + "/other.html"}, urls)
}

func TestCoordinatorStopsAtMaxPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nAllow: /\n"))
	})
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Home</title></head><body>
			hello <a href="/other.html">other</a></body></html>`))
	})
	mux.HandleFunc("/other.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Other</title></head><body>world</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "docs.store")

	cfg, err := config.WithDefault([]string{srv.URL + "/index.html"}).
		WithMaxPages(1).
		WithStorePath(storePath).
		Build()
	require.NoError(t, err)

	store, err := docstore.NewWriter(storePath)
	require.NoError(t, err)

	coordinator := crawl.NewCoordinator(cfg, store, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, coordinator.Run(ctx))
	require.NoError(t, store.Close())

	require.LessOrEqual(t, store.Count(), uint32(2))
}
