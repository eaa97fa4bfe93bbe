package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithril-search/mithril/internal/config"
	"github.com/mithril-search/mithril/internal/crawl"
	"github.com/mithril-search/mithril/internal/docstore"
	"github.com/mithril-search/mithril/internal/metadata"
)

var (
	seedURLs         []string
	allowedHosts     []string
	maxPages         int
	workerCount      int
	targetConcurrent int
	userAgent        string
	timeout          time.Duration
	followRedirects  int
	maxResponseSize  int64
	storePath        string
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl seed URLs and write discovered documents to a document store",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := buildCrawlConfig()
		exitOnError(err)

		store, err := docstore.NewWriter(cfg.StorePath())
		exitOnError(err)
		defer store.Close()

		recorder := metadata.NewRecorder(metadata.NewLogSink(nil))
		coordinator := crawl.NewCoordinator(cfg, store, recorder)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		exitOnError(coordinator.Run(ctx))
		fmt.Printf("crawl complete: %d documents written to %s\n", store.Count(), cfg.StorePath())
	},
}

func init() {
	crawlCmd.Flags().StringArrayVar(&seedURLs, "seed-url", nil, "one or more starting URLs (can be repeated)")
	crawlCmd.Flags().StringArrayVar(&allowedHosts, "allowed-host", nil, "explicit hostname allowlist (defaults to seed hosts)")
	crawlCmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum number of pages to fetch (0 for unlimited)")
	crawlCmd.Flags().IntVar(&workerCount, "worker-count", 0, "number of crawl worker goroutines")
	crawlCmd.Flags().IntVar(&targetConcurrent, "target-concurrent", 0, "target number of in-flight requests")
	crawlCmd.Flags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	crawlCmd.Flags().DurationVar(&timeout, "timeout", 0, "timeout for a single fetch")
	crawlCmd.Flags().IntVar(&followRedirects, "follow-redirects", 0, "number of redirects to follow")
	crawlCmd.Flags().Int64Var(&maxResponseSize, "max-response-size", 0, "response body cap in bytes")
	crawlCmd.Flags().StringVar(&storePath, "store-path", "", "document store output path")
}

func buildCrawlConfig() (config.Config, error) {
	if cfgFile != "" {
		return config.WithConfigFile(cfgFile)
	}
	if len(seedURLs) == 0 {
		return config.Config{}, fmt.Errorf("%w: --seed-url is required", config.ErrInvalidConfig)
	}

	builder := config.WithDefault(seedURLs)
	if len(allowedHosts) > 0 {
		builder = builder.WithAllowedHosts(parseStringSliceToSet(allowedHosts))
	}
	if maxPages > 0 {
		builder = builder.WithMaxPages(maxPages)
	}
	if workerCount > 0 {
		builder = builder.WithWorkerCount(workerCount)
	}
	if targetConcurrent > 0 {
		builder = builder.WithTargetConcurrent(targetConcurrent)
	}
	if userAgent != "" {
		builder = builder.WithUserAgent(userAgent)
	}
	if timeout > 0 {
		builder = builder.WithTimeout(timeout)
	}
	if followRedirects > 0 {
		builder = builder.WithFollowRedirects(followRedirects)
	}
	if maxResponseSize > 0 {
		builder = builder.WithMaxResponseSize(maxResponseSize)
	}
	if storePath != "" {
		builder = builder.WithStorePath(storePath)
	}
	return builder.Build()
}

func parseStringSliceToSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
