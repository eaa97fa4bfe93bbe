package crawl

import (
	"context"
	"strconv"
	"time"

	"github.com/mithril-search/mithril/internal/frontier"
	"github.com/mithril-search/mithril/internal/httpexec"
	"github.com/mithril-search/mithril/internal/metadata"
	"github.com/mithril-search/mithril/internal/murl"
	"github.com/mithril-search/mithril/internal/robots"
)

// requestManager is spec §4.4's RequestManager: it keeps the executor
// topped up to targetConcurrent by pulling URLs off the frontier, checking
// robots.txt before each submission, and draining completed/failed fetches
// into the DocumentQueue and the metadata Recorder respectively.
type requestManager struct {
	frontier         *frontier.Frontier
	docQueue         *frontier.DocumentQueue
	executor         *httpexec.Executor
	robotsCache      *robots.Cache
	targetConcurrent int
	maxPages         int
	pageCount        func() uint32
	options          httpexec.RequestOptions
	recorder         *metadata.Recorder
}

// run drives the three concurrent loops spec §4.4 describes as one
// RequestManager: filling the executor from the frontier, draining
// completed fetches into the DocumentQueue, and draining failures to the
// log. It returns once the frontier is closed and fully drained and every
// in-flight fetch has completed.
func (rm *requestManager) run(ctx context.Context) {
	resultsDone := make(chan struct{})
	failuresDone := make(chan struct{})

	go func() {
		defer close(resultsDone)
		for r := range rm.executor.Results() {
			rm.docQueue.Push(frontier.FetchResult{URL: r.URL, Body: r.Body})
			if rm.recorder != nil {
				rm.recorder.RecordEvent("crawl.fetch_complete",
					metadata.NewAttr(metadata.AttrURL, r.URL),
					metadata.NewAttr(metadata.AttrHTTPStatus, strconv.Itoa(r.StatusCode)),
				)
			}
		}
	}()
	go func() {
		defer close(failuresDone)
		for f := range rm.executor.Failures() {
			if rm.recorder != nil {
				rm.recorder.RecordError("crawl", "fetch", metadata.CauseNetworkFailure, f.Err,
					metadata.NewAttr(metadata.AttrURL, f.URL))
			}
		}
	}()

	rm.fill(ctx)
	rm.executor.Close()
	<-resultsDone
	<-failuresDone
}

// fill repeatedly pulls URLs from the frontier and submits the ones robots
// rules allow, keeping URLs whose robots ruleset isn't cached yet on a
// small local retry list. It returns once the frontier is closed and
// drained and nothing remains pending.
func (rm *requestManager) fill(ctx context.Context) {
	var pending []string
	for {
		if ctx.Err() != nil {
			return
		}
		if rm.maxPages > 0 && rm.pageCount() >= uint32(rm.maxPages) {
			rm.frontier.Close()
			return
		}

		want := rm.targetConcurrent - rm.executor.InFlightRequests()
		if want < 1 {
			want = 1
		}
		batch := rm.frontier.GetURLs(want, len(pending) == 0)
		if len(batch) == 0 && len(pending) == 0 {
			return
		}
		batch = append(pending, batch...)
		pending = pending[:0]

		for _, raw := range batch {
			u, err := murl.Parse(raw)
			if err != nil {
				continue
			}
			host := murl.CanonicalizeHost(u)
			rules, ready := rm.robotsCache.GetOrFetch(ctx, host)
			if !ready {
				pending = append(pending, raw)
				continue
			}
			if !rules.Allowed(u.Path) {
				if rm.recorder != nil {
					rm.recorder.RecordEvent("crawl.robots_disallowed", metadata.NewAttr(metadata.AttrURL, raw))
				}
				continue
			}
			if delay := rules.CrawlDelay(); delay > 0 {
				rm.executor.SetHostCrawlDelay(admissionKey(host), delay)
			}
			for rm.executor.InFlightRequests() >= rm.targetConcurrent {
				time.Sleep(5 * time.Millisecond)
			}
			rm.executor.Submit(ctx, httpexec.Request{URL: raw, Options: rm.options})
		}
		if len(pending) > 0 {
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// admissionKey renders a CanonicalHost the same way net/url renders a
// Request.URL.Host, so robots.txt Crawl-Delay overrides land on the exact
// key the Executor's rate limiter looks up during connection admission.
func admissionKey(host murl.CanonicalHost) string {
	if host.Port == "" {
		return host.Host
	}
	return host.Host + ":" + host.Port
}
