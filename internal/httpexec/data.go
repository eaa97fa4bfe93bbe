// Package httpexec drives many concurrent HTTP/1.1 fetches with per-request
// timeout, redirect, size, and content-type policies. The original spec
// describes a single-threaded cooperative event loop over non-blocking
// sockets multiplexed by readiness polling; Go's net/http client is already
// backed by the runtime's non-blocking netpoller, so this package expresses
// the same policy surface as a bounded pool of goroutines driving net/http
// requests instead of a hand-rolled epoll loop — the idiomatic Go mapping
// of the same concurrency contract (see DESIGN.md).
package httpexec

import "time"

// RequestOptions mirrors spec §4.3's RequestOptions: 0 means "no limit / no
// following / no inspection" except MaxResponseSize, which is always
// enforced (0 there means "use the executor default").
type RequestOptions struct {
	FollowRedirects        int
	Timeout                time.Duration
	MaxResponseSize        int64
	AllowedMIME            []string
	AllowedContentLanguage []string
}

// DefaultMaxResponseSize bounds response bodies when RequestOptions doesn't
// specify one.
const DefaultMaxResponseSize = 16 << 20 // 16 MiB

// Result is a completed fetch.
type Result struct {
	URL         string
	StatusCode  int
	Body        []byte
	ContentType string
	Headers     map[string]string
	Redirects   int
}

// FailureKind classifies why a request did not complete, per spec §4.3/§7.
type FailureKind string

const (
	FailureTimedOut             FailureKind = "timed_out"
	FailureTooManyRedirects     FailureKind = "too_many_redirects"
	FailureResponseTooBig       FailureKind = "response_too_big"
	FailureInvalidResponseData  FailureKind = "invalid_response_data"
	FailureConnectionError      FailureKind = "connection_error"
	FailureRedirectError        FailureKind = "redirect_error"
)

// Failure is a classified, non-fatal per-request error: it kills one
// request, never the executor.
type Failure struct {
	URL  string
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.URL + ": " + f.Err.Error()
}
