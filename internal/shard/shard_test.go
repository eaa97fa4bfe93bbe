package shard

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mithril-search/mithril/internal/docstore"
	"github.com/mithril-search/mithril/internal/index"
	"github.com/mithril-search/mithril/internal/ranking"
	"github.com/stretchr/testify/require"
)

func buildShardIndex(t *testing.T, docs [][3]string) *index.Reader {
	t.Helper()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "docs.store")
	w, err := docstore.NewWriter(storePath)
	require.NoError(t, err)
	for _, d := range docs {
		doc := docstore.NewDocument(d[0], splitWords(d[2]), nil, splitWords(d[1]), nil)
		_, err := w.Append(doc)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	outDir := filepath.Join(dir, "out")
	b := index.NewBuilder(outDir, filepath.Join(dir, "work"), nil)
	require.NoError(t, b.BuildFromStore(context.Background(), storePath, 2))

	r, err := index.OpenReader(outDir)
	require.NoError(t, err)
	return r
}

func splitWords(s string) []string {
	if s == "" {
		return nil
	}
	var words []string
	cur := ""
	for _, r := range s + " " {
		if r == ' ' {
			if cur != "" {
				words = append(words, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	return words
}

func TestEngineAnswerQueryRanksMatches(t *testing.T) {
	reader := buildShardIndex(t, [][3]string{
		{"https://example.com/cats", "cat cat cat dog", "All About Cats"},
		{"https://example.com/dogs", "dog dog", "All About Dogs"},
		{"https://example.com/other", "bird", "Birds"},
	})
	engine := NewEngine(reader, nil, ranking.DefaultWeights, ranking.DefaultBM25Params)
	results, err := engine.AnswerQuery("cat")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint32(0), results[0].DocID)
}

func TestManagerAnswerQueryMergesShards(t *testing.T) {
	r1 := buildShardIndex(t, [][3]string{
		{"https://example.com/a", "cat dog", "Cats and Dogs"},
	})
	r2 := buildShardIndex(t, [][3]string{
		{"https://example.com/b", "cat bird", "Cats and Birds"},
	})
	e1 := NewEngine(r1, nil, ranking.DefaultWeights, ranking.DefaultBM25Params)
	e2 := NewEngine(r2, nil, ranking.DefaultWeights, ranking.DefaultBM25Params)
	mgr := NewManager([]*Engine{e1, e2}, nil)
	defer mgr.Shutdown()

	results := mgr.AnswerQuery("cat")
	require.Len(t, results, 2)
	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestManagerShutdownJoinsWorkers(t *testing.T) {
	r1 := buildShardIndex(t, [][3]string{{"https://example.com/a", "cat", "Cat"}})
	e1 := NewEngine(r1, nil, ranking.DefaultWeights, ranking.DefaultBM25Params)
	mgr := NewManager([]*Engine{e1}, nil)
	mgr.AnswerQuery("cat")
	mgr.Shutdown()
}
