package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mithril-search/mithril/internal/config"
	"github.com/mithril-search/mithril/internal/index"
	"github.com/mithril-search/mithril/internal/metadata"
	"github.com/mithril-search/mithril/internal/pagerank"
	"github.com/mithril-search/mithril/internal/queryrpc"
	"github.com/mithril-search/mithril/internal/ranking"
	"github.com/mithril-search/mithril/internal/shard"
)

var (
	workerShardDirs   []string
	workerPagerank    string
	workerWeightsPath string
	workerBM25K1      float64
	workerBM25B       float64
	workerListenAddr  string
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Serve the shard RPC for one host's set of index shards",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := buildWorkerConfig()
		exitOnError(err)
		if len(cfg.ShardDirs()) == 0 {
			exitOnError(fmt.Errorf("%w: at least one --shard-dir is required", config.ErrInvalidConfig))
		}

		recorder := metadata.NewRecorder(metadata.NewLogSink(nil))

		var pr *pagerank.Reader
		if cfg.PagerankPath() != "" {
			pr, err = pagerank.Open(cfg.PagerankPath())
			exitOnError(err)
		}

		weights := ranking.DefaultWeights
		if cfg.WeightsPath() != "" {
			weights, err = ranking.LoadWeights(cfg.WeightsPath())
			exitOnError(err)
		}
		bm25 := ranking.DefaultBM25Params
		if cfg.BM25K1() != 0 || cfg.BM25B() != 0 {
			bm25 = ranking.BM25Params{K1: cfg.BM25K1(), B: cfg.BM25B()}
		}

		engines := make([]*shard.Engine, 0, len(cfg.ShardDirs()))
		for _, dir := range cfg.ShardDirs() {
			reader, err := index.OpenReader(dir)
			exitOnError(err)
			engines = append(engines, shard.NewEngine(reader, pr, weights, bm25))
		}

		manager := shard.NewManager(engines, recorder)
		defer manager.Shutdown()

		server := queryrpc.NewServer(manager, recorder)
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("worker listening on %s (%d shards)\n", cfg.ListenAddr(), len(engines))
		exitOnError(server.Serve(ctx, cfg.ListenAddr()))
	},
}

func init() {
	workerCmd.Flags().StringArrayVar(&workerShardDirs, "shard-dir", nil, "index directory for one shard (repeat per shard)")
	workerCmd.Flags().StringVar(&workerPagerank, "pagerank-path", "", "pagerank.out vector shared across this host's shards")
	workerCmd.Flags().StringVar(&workerWeightsPath, "weights-path", "", "JSON ranker weights file")
	workerCmd.Flags().Float64Var(&workerBM25K1, "bm25-k1", 0, "BM25 k1 constant")
	workerCmd.Flags().Float64Var(&workerBM25B, "bm25-b", 0, "BM25 b constant")
	workerCmd.Flags().StringVar(&workerListenAddr, "listen-addr", "", "TCP address to serve the shard RPC on")
}

func buildWorkerConfig() (config.Config, error) {
	if cfgFile != "" {
		return config.WithConfigFile(cfgFile)
	}
	builder := config.WithDefault(nil)
	if len(workerShardDirs) > 0 {
		builder = builder.WithShardDirs(workerShardDirs)
	}
	if workerPagerank != "" {
		builder = builder.WithPagerankPath(workerPagerank)
	}
	if workerWeightsPath != "" {
		builder = builder.WithWeightsPath(workerWeightsPath)
	}
	if workerBM25K1 != 0 || workerBM25B != 0 {
		builder = builder.WithBM25Params(workerBM25K1, workerBM25B)
	}
	if workerListenAddr != "" {
		builder = builder.WithListenAddr(workerListenAddr)
	}
	return builder.Build()
}
