package httpexec_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mithril-search/mithril/internal/httpexec"
)

func TestSubmitFetchesSuccessfully(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	e := httpexec.NewExecutor(4, "mithril-test/1.0")
	e.Submit(context.Background(), httpexec.Request{URL: srv.URL, Options: httpexec.RequestOptions{Timeout: 2 * time.Second}})
	e.Close()

	var results []httpexec.Result
	for r := range e.Results() {
		results = append(results, r)
	}
	require.Len(t, results, 1)
	require.Equal(t, 200, results[0].StatusCode)
	require.Equal(t, "hello", string(results[0].Body))
	require.Equal(t, "mithril-test/1.0", gotUA)
}

func TestNewExecutorDefaultsEmptyUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	e := httpexec.NewExecutor(1, "")
	e.Submit(context.Background(), httpexec.Request{URL: srv.URL, Options: httpexec.RequestOptions{Timeout: 2 * time.Second}})
	e.Close()
	for range e.Results() {
	}
	require.Equal(t, "mithril-crawler/1.0", gotUA)
}

func TestSubmitReportsResponseTooBig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 1024))
	}))
	defer srv.Close()

	e := httpexec.NewExecutor(1, "mithril-test/1.0")
	e.Submit(context.Background(), httpexec.Request{
		URL: srv.URL,
		Options: httpexec.RequestOptions{
			Timeout:         2 * time.Second,
			MaxResponseSize: 10,
		},
	})
	e.Close()

	var failures []httpexec.Failure
	for f := range e.Failures() {
		failures = append(failures, f)
	}
	require.Len(t, failures, 1)
	require.Equal(t, httpexec.FailureResponseTooBig, failures[0].Kind)
}

func TestSubmitFollowsRedirectsUpToLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("done"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := httpexec.NewExecutor(1, "mithril-test/1.0")
	e.Submit(context.Background(), httpexec.Request{
		URL: srv.URL + "/a",
		Options: httpexec.RequestOptions{
			Timeout:         2 * time.Second,
			FollowRedirects: 2,
		},
	})
	e.Close()

	var results []httpexec.Result
	for r := range e.Results() {
		results = append(results, r)
	}
	require.Len(t, results, 1)
	require.Equal(t, "done", string(results[0].Body))
	require.Equal(t, 1, results[0].Redirects)
}

func TestSubmitReportsTooManyRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/a", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := httpexec.NewExecutor(1, "mithril-test/1.0")
	e.Submit(context.Background(), httpexec.Request{
		URL: srv.URL + "/a",
		Options: httpexec.RequestOptions{
			Timeout:         2 * time.Second,
			FollowRedirects: 1,
		},
	})
	e.Close()

	var failures []httpexec.Failure
	for f := range e.Failures() {
		failures = append(failures, f)
	}
	require.Len(t, failures, 1)
	require.Equal(t, httpexec.FailureTooManyRedirects, failures[0].Kind)
}

func TestInFlightRequestsTracksConcurrency(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	e := httpexec.NewExecutor(2, "mithril-test/1.0")
	e.Submit(context.Background(), httpexec.Request{URL: srv.URL, Options: httpexec.RequestOptions{Timeout: 2 * time.Second}})
	require.Eventually(t, func() bool { return e.InFlightRequests() == 1 }, time.Second, 10*time.Millisecond)

	close(release)
	e.Close()
	for range e.Results() {
	}
	require.Equal(t, 0, e.InFlightRequests())
}
