package crawl

import (
	"net/url"
	"strings"

	"github.com/mithril-search/mithril/internal/docstore"
	"github.com/mithril-search/mithril/internal/extract"
	"github.com/mithril-search/mithril/internal/frontier"
	"github.com/mithril-search/mithril/internal/metadata"
)

// worker is spec §4.4's Worker: it loops on DocumentQueue.Pop, extracts the
// page, resolves every outbound link to an absolute URL, writes a Document
// to the store, and pushes newly discovered links back onto the frontier.
type worker struct {
	docQueue     *frontier.DocumentQueue
	frontier     *frontier.Frontier
	store        *docstore.Writer
	allowedHosts map[string]struct{}
	recorder     *metadata.Recorder
}

func (w *worker) run() {
	for {
		fr, ok := w.docQueue.Pop()
		if !ok {
			return
		}
		w.process(fr)
	}
}

func (w *worker) process(fr frontier.FetchResult) {
	res, err := extract.Extract(fr.Body)
	if err != nil {
		if w.recorder != nil {
			w.recorder.RecordError("crawl", "extract", metadata.CauseContentInvalid, err,
				metadata.NewAttr(metadata.AttrURL, fr.URL))
		}
		return
	}

	forwardLinks := make([]string, 0, len(res.RawLinks))
	var toEnqueue []string
	for _, raw := range res.RawLinks {
		resolved, ok := resolveLink(fr.URL, res.BaseHref, raw)
		if !ok {
			continue
		}
		forwardLinks = append(forwardLinks, resolved)
		if w.hostAllowed(resolved) {
			toEnqueue = append(toEnqueue, resolved)
		}
	}

	doc := docstore.NewDocument(fr.URL, res.Title, res.Description, res.Words, forwardLinks)
	if _, err := w.store.Append(doc); err != nil {
		if w.recorder != nil {
			w.recorder.RecordError("crawl", "store_append", metadata.CauseStorageFailure, err,
				metadata.NewAttr(metadata.AttrURL, fr.URL))
		}
		return
	}

	if len(toEnqueue) > 0 {
		w.frontier.PutURLs(toEnqueue)
	}
}

func (w *worker) hostAllowed(rawURL string) bool {
	if len(w.allowedHosts) == 0 {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	_, ok := w.allowedHosts[strings.ToLower(u.Hostname())]
	return ok
}

// nonHTTPSchemes lists the link schemes spec §4.4 says must be rejected
// outright (javascript:, mailto:, data:, tel:, ftp:, ws:, and bare
// fragments). Anything with a scheme other than http/https after
// resolution falls into this bucket too.
var nonHTTPSchemes = map[string]bool{
	"javascript": true,
	"mailto":     true,
	"data":       true,
	"tel":        true,
	"ftp":        true,
	"ws":         true,
	"wss":        true,
}

// resolveLink resolves href against pageURL (or baseHref, when the page
// declared a <base href>), handling protocol-relative "//", root-relative
// "/", and dot-segment paths via net/url's ResolveReference, and rejects
// non-http(s) schemes per spec §4.4.
func resolveLink(pageURL, baseHref, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	rel, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if rel.Scheme != "" && nonHTTPSchemes[strings.ToLower(rel.Scheme)] {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	if baseHref != "" {
		if b, err := url.Parse(baseHref); err == nil {
			base = base.ResolveReference(b)
		}
	}

	resolved := base.ResolveReference(rel)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}
