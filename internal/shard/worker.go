// Package shard implements the single-host QueryManager of spec §4.9: a
// fixed pool of shard workers, each bound to one index directory, answering
// broadcast queries and returning a locally-ranked top-50.
package shard

import (
	"container/heap"
	"strings"

	"github.com/mithril-search/mithril/internal/docstore"
	"github.com/mithril-search/mithril/internal/index"
	"github.com/mithril-search/mithril/internal/pagerank"
	"github.com/mithril-search/mithril/internal/queryeval"
	"github.com/mithril-search/mithril/internal/queryparse"
	"github.com/mithril-search/mithril/internal/ranking"
)

// LocalTopK bounds each shard worker's per-query result set, per spec §4.9.
const LocalTopK = 50

// Result is one scored document, matching the fields carried across the
// shard RPC (spec §6) plus the positional term hits spec §4.9 asks the
// in-process QueryManager to keep (term -> positions), dropped once the
// result crosses the RPC boundary in internal/queryrpc.
type Result struct {
	DocID         uint32
	Score         uint32
	URL           string
	Title         string
	TermPositions map[string][]uint16
}

// Engine evaluates queries against one shard's index, combining BM25,
// static rank, and pagerank into the dynamic ranker's final score, per
// spec §4.8/§4.9.
type Engine struct {
	reader   *index.Reader
	pr       *pagerank.Reader // optional; nil means every pagerank feature is 0
	weights  ranking.Weights
	bm25     ranking.BM25Params
}

// NewEngine binds an Engine to an already-opened shard index. pr may be
// nil if no PageRank vector is available for this shard.
func NewEngine(reader *index.Reader, pr *pagerank.Reader, weights ranking.Weights, bm25 ranking.BM25Params) *Engine {
	return &Engine{reader: reader, pr: pr, weights: weights, bm25: bm25}
}

// AnswerQuery evaluates text against the shard's index and returns its
// local top-LocalTopK results sorted by descending score, per spec §4.9.
func (e *Engine) AnswerQuery(text string) ([]Result, error) {
	node, err := queryparse.Parse(text)
	if err != nil {
		return nil, err
	}
	stream, err := queryeval.Eval(node, e.reader)
	if err != nil {
		return nil, err
	}
	terms := queryeval.CollectTerms(node)
	stats := e.reader.Stats()

	h := &resultHeap{}
	heap.Init(h)
	for stream.HasNext() {
		docID := stream.CurrentDoc()
		info, ok := e.reader.DocMap().Get(docID)
		if !ok {
			stream.NextDoc()
			continue
		}
		res := e.score(docID, info, terms, stats)
		if h.Len() < LocalTopK {
			heap.Push(h, res)
		} else if h.Len() > 0 && (*h)[0].Score < res.Score {
			heap.Pop(h)
			heap.Push(h, res)
		}
		stream.NextDoc()
	}

	results := make([]Result, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(Result)
	}
	return results, nil
}

func (e *Engine) score(docID uint32, info docstore.DocInfo, terms []string, stats index.Stats) Result {
	titleTokens := strings.Fields(info.Title)
	urlTokens := strings.Fields(strings.NewReplacer("/", " ", "-", " ", "_", " ", ".", " ").Replace(info.URL))

	var bm25Stats []ranking.TermStat
	for _, term := range terms {
		termISR := newSeekableTerm(e.reader, term)
		freq := uint32(0)
		if termISR.seek(docID) {
			freq = termISR.frequency()
		}
		bm25Stats = append(bm25Stats, ranking.TermStat{Freq: freq, DocFreq: uint32(termISR.docFrequency())})
	}
	bm25 := ranking.BM25(bm25Stats, float64(info.BodyLength), stats.AvgBodyLength(), stats.DocCount, e.bm25)

	pr := 0.0
	if e.pr != nil {
		pr = e.pr.Score(docID)
	}

	termPositions := make(map[string][]uint16)
	for _, term := range terms {
		ts := newSeekableTerm(e.reader, term)
		if ts.seek(docID) && ts.hasPositions() {
			termPositions[term] = ts.positions()
		}
	}

	features := ranking.Features{
		QueryInTitle: ranking.Coverage(terms, titleTokens) > 0,
		QueryInURL:   ranking.Coverage(terms, urlTokens) > 0,
		QueryInBody:  bm25 > 0,

		CoverageTitle: ranking.Coverage(terms, titleTokens),
		CoverageURL:   ranking.Coverage(terms, urlTokens),

		OrderSensitiveTitle: ranking.OrderedMatchScore(terms, titleTokens),

		DensityTitle: ranking.Density(terms, titleTokens),
		DensityURL:   ranking.Density(terms, urlTokens),

		EarliestPosTitle: ranking.EarliestPosition(terms, titleTokens),
		EarliestPosBody:  ranking.EarliestPositionFromOffsets(termPositions, int(info.BodyLength)),

		BM25:       bm25,
		StaticRank: ranking.StaticRank(info.URL),
		PageRank:   pr,
	}

	return Result{
		DocID:         docID,
		Score:         ranking.DynamicRank(features, e.weights),
		URL:           info.URL,
		Title:         info.Title,
		TermPositions: termPositions,
	}
}
