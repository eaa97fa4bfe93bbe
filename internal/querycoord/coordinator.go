// Package querycoord implements the cross-host QueryCoordinator of spec
// §4.10: it fans a query out to every shard endpoint over the queryrpc
// wire protocol, one goroutine per shard with no shared mutable state
// beyond disjoint result slots (spec §5), and merges the per-shard
// responses into a single global top-K by descending score then docid.
package querycoord

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mithril-search/mithril/internal/config"
	"github.com/mithril-search/mithril/internal/metadata"
	"github.com/mithril-search/mithril/internal/queryrpc"
)

// DefaultTopK is the global result count the coordinator truncates to.
const DefaultTopK = 50

// Coordinator holds the shard topology a query is fanned out across.
type Coordinator struct {
	shards   []config.ShardEndpoint
	topK     int
	recorder *metadata.Recorder
}

// New builds a Coordinator over shards, truncating merged results to topK
// (DefaultTopK if topK <= 0).
func New(shards []config.ShardEndpoint, topK int, recorder *metadata.Recorder) *Coordinator {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Coordinator{shards: shards, topK: topK, recorder: recorder}
}

// Answer dials every shard in parallel, merges their responses by
// descending score (ties broken by ascending docid, per spec §5's ordering
// guarantee), and returns the global top-K. A shard that errors or times
// out contributes no results rather than failing the whole query, matching
// spec §4.11's "a misbehaving socket kills one request, not the crawler"
// philosophy extended to the query layer.
func (c *Coordinator) Answer(ctx context.Context, query string) ([]queryrpc.Result, error) {
	if len(c.shards) == 0 {
		return nil, fmt.Errorf("querycoord: no shard endpoints configured")
	}

	marginal := make([][]queryrpc.Result, len(c.shards))
	var wg sync.WaitGroup
	for i, ep := range c.shards {
		i, ep := i, ep
		wg.Add(1)
		go func() {
			defer wg.Done()
			addr := fmt.Sprintf("%s:%d", ep.Host, ep.Port)
			results, err := queryrpc.Query(ctx, addr, query)
			if err != nil {
				if c.recorder != nil {
					c.recorder.RecordError("querycoord", "query_shard", metadata.CauseShardUnavailable, err,
						metadata.NewAttr(metadata.AttrShardID, fmt.Sprintf("%d", i)))
				}
				return
			}
			marginal[i] = results
		}()
	}
	wg.Wait()

	var merged []queryrpc.Result
	for _, r := range marginal {
		merged = append(merged, r...)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].DocID < merged[j].DocID
	})
	if len(merged) > c.topK {
		merged = merged[:c.topK]
	}

	if c.recorder != nil {
		c.recorder.RecordEvent("querycoord.answered",
			metadata.NewAttr(metadata.AttrQueryText, query),
			metadata.NewAttr(metadata.AttrResultCount, fmt.Sprintf("%d", len(merged))))
	}
	return merged, nil
}
