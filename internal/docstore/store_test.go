package docstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mithril-search/mithril/internal/docstore"
)

func TestWriterAssignsDenseSequentialIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.gz")
	w, err := docstore.NewWriter(path)
	require.NoError(t, err)

	id0, err := w.Append(docstore.NewDocument("http://a", nil, nil, []string{"cat"}, nil))
	require.NoError(t, err)
	id1, err := w.Append(docstore.NewDocument("http://b", nil, nil, []string{"dog"}, nil))
	require.NoError(t, err)
	require.Equal(t, uint32(0), id0)
	require.Equal(t, uint32(1), id1)
	require.Equal(t, uint32(2), w.Count())
	require.NoError(t, w.Close())

	r, err := docstore.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	doc, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(0), doc.ID())
	require.Equal(t, "http://a", doc.URL())
	require.NotEmpty(t, doc.ContentHash())

	doc, ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(1), doc.ID())

	_, ok, err = r.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewWriterCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "store.gz")
	w, err := docstore.NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, err = os.Stat(path)
	require.NoError(t, err)
}
