package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mithril-search/mithril/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefault(t *testing.T) {
	cfg, err := config.WithDefault([]string{"https://example.org/seed"}).Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.org/seed"}, cfg.SeedURLs())

	// AllowedHosts defaults to the seed URLs' hostnames.
	require.Len(t, cfg.AllowedHosts(), 1)
	_, ok := cfg.AllowedHosts()["example.org"]
	assert.True(t, ok)

	assert.Equal(t, 0, cfg.MaxPages())
	assert.Equal(t, 8, cfg.WorkerCount())
	assert.Equal(t, 64, cfg.TargetConcurrent())
	assert.Equal(t, 5, cfg.MaxAttempt())
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, "mithril-crawler/1.0", cfg.UserAgent())
	assert.Equal(t, 5, cfg.FollowRedirects())
	assert.Equal(t, int64(16<<20), cfg.MaxResponseSize())
	assert.Equal(t, "documents.store", cfg.StorePath())
	assert.False(t, cfg.DryRun())
	assert.Equal(t, "index", cfg.IndexOutDir())
	assert.Equal(t, 8, cfg.IndexWorkers())
	assert.Equal(t, 1.2, cfg.BM25K1())
	assert.Equal(t, 0.75, cfg.BM25B())
	assert.Equal(t, ":7070", cfg.ListenAddr())
}

func TestExplicitAllowedHostsIsNotOverridden(t *testing.T) {
	cfg, err := config.WithDefault([]string{"https://example.org/seed"}).
		WithAllowedHosts(map[string]struct{}{"other.example": {}}).
		Build()
	require.NoError(t, err)

	require.Len(t, cfg.AllowedHosts(), 1)
	_, ok := cfg.AllowedHosts()["other.example"]
	assert.True(t, ok)
}

func TestBuilderChaining(t *testing.T) {
	cfg, err := config.WithDefault([]string{"http://a.test"}).
		WithMaxPages(500).
		WithWorkerCount(4).
		WithTargetConcurrent(32).
		WithTimeout(5 * time.Second).
		WithUserAgent("custom-bot/2.0").
		WithFollowRedirects(2).
		WithMaxResponseSize(1 << 20).
		WithDocQueueCapacity(16).
		WithStorePath("/tmp/docs.store").
		WithDryRun(true).
		WithIndexOutDir("/tmp/idx").
		WithIndexWorkDir("/tmp/idx/_blocks").
		WithIndexWorkers(2).
		WithBM25Params(1.5, 0.6).
		WithWeightsPath("/tmp/weights.json").
		WithShardDirs([]string{"/tmp/idx/shard0", "/tmp/idx/shard1"}).
		WithPagerankPath("/tmp/pagerank.out").
		WithShardEndpoints([]config.ShardEndpoint{{Host: "10.0.0.1", Port: 7070}}).
		WithListenAddr(":9090").
		Build()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.MaxPages())
	assert.Equal(t, 4, cfg.WorkerCount())
	assert.Equal(t, 32, cfg.TargetConcurrent())
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, "custom-bot/2.0", cfg.UserAgent())
	assert.Equal(t, 2, cfg.FollowRedirects())
	assert.Equal(t, int64(1<<20), cfg.MaxResponseSize())
	assert.Equal(t, 16, cfg.DocQueueCapacity())
	assert.Equal(t, "/tmp/docs.store", cfg.StorePath())
	assert.True(t, cfg.DryRun())
	assert.Equal(t, "/tmp/idx", cfg.IndexOutDir())
	assert.Equal(t, 2, cfg.IndexWorkers())
	assert.Equal(t, 1.5, cfg.BM25K1())
	assert.Equal(t, 0.6, cfg.BM25B())
	assert.Equal(t, "/tmp/weights.json", cfg.WeightsPath())
	assert.Equal(t, []string{"/tmp/idx/shard0", "/tmp/idx/shard1"}, cfg.ShardDirs())
	assert.Equal(t, "/tmp/pagerank.out", cfg.PagerankPath())
	assert.Equal(t, []config.ShardEndpoint{{Host: "10.0.0.1", Port: 7070}}, cfg.ShardEndpoints())
	assert.Equal(t, ":9090", cfg.ListenAddr())
}

func TestWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mithril.json")

	dto := map[string]any{
		"seedUrls": []string{"https://example.org"},
		"maxPages": 1000,
		"shardEndpoints": []map[string]any{
			{"host": "127.0.0.1", "port": 7071},
			{"host": "127.0.0.1", "port": 7072},
		},
	}
	data, err := json.Marshal(dto)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := config.WithConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.org"}, cfg.SeedURLs())
	assert.Equal(t, 1000, cfg.MaxPages())
	assert.Len(t, cfg.ShardEndpoints(), 2)
}

func TestWithConfigFileMissing(t *testing.T) {
	_, err := config.WithConfigFile("/nonexistent/mithril.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrFileDoesNotExist)
}

func TestWithConfigFileInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := config.WithConfigFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigParsingFail)
}
