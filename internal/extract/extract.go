// Package extract is the minimal HTML→Document collaborator the crawler
// calls into. Producing title/description/words/forwardLinks from markup is
// explicitly out of scope of the core per spec (the HTML parser is a
// collaborator), but the crawler still needs something concrete to call, so
// this package implements it with the teacher's goquery + x/net/html stack
// rather than leaving a stub.
package extract

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Result holds everything the crawler needs out of one fetched page. Links
// are returned as raw, unresolved href attribute values; resolving them
// against the page URL (and an optional <base href>) is the crawl worker's
// job per spec §4.4, not this collaborator's.
type Result struct {
	Title        []string
	Description  []string
	Words        []string
	RawLinks     []string
	BaseHref     string
}

// MaxWords caps how many body tokens are retained per document, guarding
// against pathologically large pages.
const MaxWords = 200_000

// Extract parses htmlBytes and pulls out the fields the indexer needs.
func Extract(htmlBytes []byte) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return Result{}, &Error{Message: err.Error(), Retryable: false, Cause: ErrCauseNotHTML}
	}
	if doc.Find("html").Length() == 0 {
		return Result{}, &Error{Message: "no <html> element", Retryable: false, Cause: ErrCauseNotHTML}
	}

	title := Tokenize(doc.Find("title").First().Text())

	description := ""
	if v, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		description = v
	}

	doc.Find("script, style, noscript").Remove()
	body := doc.Find("body").First().Text()
	words := Tokenize(body)
	if len(words) > MaxWords {
		words = words[:MaxWords]
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})

	baseHref, _ := doc.Find("base[href]").First().Attr("href")

	if len(body) == 0 && len(title) == 0 {
		return Result{}, &Error{Message: "empty document", Retryable: false, Cause: ErrCauseNoContent}
	}

	return Result{
		Title:        title,
		Description:  Tokenize(description),
		Words:        words,
		RawLinks:     links,
		BaseHref:     baseHref,
	}, nil
}

// Tokenize lowercases text and splits it on runs of non-alphanumeric runes,
// dropping empty tokens. Exported so the index builder can apply the same
// tokenization to URL and other non-HTML fields.
func Tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}
