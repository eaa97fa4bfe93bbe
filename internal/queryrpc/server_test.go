package queryrpc_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mithril-search/mithril/internal/docstore"
	"github.com/mithril-search/mithril/internal/index"
	"github.com/mithril-search/mithril/internal/queryrpc"
	"github.com/mithril-search/mithril/internal/ranking"
	"github.com/mithril-search/mithril/internal/shard"
)

func buildTestIndex(t *testing.T) *index.Reader {
	t.Helper()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "docs.store")
	w, err := docstore.NewWriter(storePath)
	require.NoError(t, err)
	doc := docstore.NewDocument("https://example.com/cats", []string{"All", "About", "Cats"}, nil, []string{"cat", "cat", "dog"}, nil)
	_, err = w.Append(doc)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	outDir := filepath.Join(dir, "out")
	b := index.NewBuilder(outDir, filepath.Join(dir, "work"), nil)
	require.NoError(t, b.BuildFromStore(context.Background(), storePath, 1))

	r, err := index.OpenReader(outDir)
	require.NoError(t, err)
	return r
}

func TestServeAnswersQueryOverTheWire(t *testing.T) {
	reader := buildTestIndex(t)
	engine := shard.NewEngine(reader, nil, ranking.DefaultWeights, ranking.DefaultBM25Params)
	manager := shard.NewManager([]*shard.Engine{engine}, nil)
	defer manager.Shutdown()

	server := queryrpc.NewServer(manager, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := "127.0.0.1:17171"
	serveErrCh := make(chan error, 1)
	go func() { serveErrCh <- server.Serve(ctx, addr) }()
	time.Sleep(50 * time.Millisecond) // let the listener bind

	qctx, qcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer qcancel()
	results, err := queryrpc.Query(qctx, addr, "cat")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "https://example.com/cats", results[0].URL)

	cancel()
	select {
	case <-serveErrCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}
