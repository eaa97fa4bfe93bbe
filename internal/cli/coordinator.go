package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithril-search/mithril/internal/config"
	"github.com/mithril-search/mithril/internal/metadata"
	"github.com/mithril-search/mithril/internal/querycoord"
)

var (
	coordShardHosts []string
	coordQuery      string
	coordTopK       int
)

var coordinatorCmd = &cobra.Command{
	Use:   "coordinator",
	Short: "Fan a query out across worker hosts and print the merged top results",
	Long: `coordinator answers one query (via --query) or, with no --query flag,
reads queries one per line from stdin until EOF, fanning each out to every
configured shard endpoint and printing the merged, globally-ranked results.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := buildCoordinatorConfig()
		exitOnError(err)
		if len(cfg.ShardEndpoints()) == 0 {
			exitOnError(fmt.Errorf("%w: at least one --shard-endpoint is required", config.ErrInvalidConfig))
		}

		recorder := metadata.NewRecorder(metadata.NewLogSink(nil))
		coordinator := querycoord.New(cfg.ShardEndpoints(), coordTopK, recorder)
		ctx := cmd.Context()

		if coordQuery != "" {
			exitOnError(answerAndPrint(ctx, coordinator, coordQuery))
			return
		}

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			query := strings.TrimSpace(scanner.Text())
			if query == "" {
				continue
			}
			if err := answerAndPrint(ctx, coordinator, query); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			}
		}
	},
}

func answerAndPrint(ctx context.Context, coordinator *querycoord.Coordinator, query string) error {
	results, err := coordinator.Answer(ctx, query)
	if err != nil {
		return err
	}
	fmt.Printf("%q -> %d results\n", query, len(results))
	for _, r := range results {
		fmt.Printf("  %6d  %s  %s\n", r.Score, r.URL, strings.Join(r.TitleWords, " "))
	}
	return nil
}

func init() {
	coordinatorCmd.Flags().StringArrayVar(&coordShardHosts, "shard-endpoint", nil, "host:port of one worker shard (repeat per host)")
	coordinatorCmd.Flags().StringVar(&coordQuery, "query", "", "answer a single query and exit instead of reading stdin")
	coordinatorCmd.Flags().IntVar(&coordTopK, "top-k", 0, "global result count to truncate to (default querycoord.DefaultTopK)")
}

func buildCoordinatorConfig() (config.Config, error) {
	if cfgFile != "" {
		return config.WithConfigFile(cfgFile)
	}
	endpoints, err := parseShardEndpoints(coordShardHosts)
	if err != nil {
		return config.Config{}, err
	}
	return config.WithDefault(nil).WithShardEndpoints(endpoints).Build()
}

func parseShardEndpoints(raw []string) ([]config.ShardEndpoint, error) {
	endpoints := make([]config.ShardEndpoint, 0, len(raw))
	for _, hp := range raw {
		host, portStr, found := strings.Cut(hp, ":")
		if !found || host == "" || portStr == "" {
			return nil, fmt.Errorf("%w: shard endpoint %q must be host:port", config.ErrInvalidConfig, hp)
		}
		var port int
		if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
			return nil, fmt.Errorf("%w: shard endpoint %q has an invalid port", config.ErrInvalidConfig, hp)
		}
		endpoints = append(endpoints, config.ShardEndpoint{Host: host, Port: port})
	}
	return endpoints, nil
}
