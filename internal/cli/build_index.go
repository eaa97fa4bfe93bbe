package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithril-search/mithril/internal/config"
	"github.com/mithril-search/mithril/internal/index"
	"github.com/mithril-search/mithril/internal/metadata"
)

var (
	indexStorePath  string
	indexOutDir     string
	indexWorkDir    string
	indexWorkersCLI int
)

var buildIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Build a queryable inverted index from a document store",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := buildIndexConfig()
		exitOnError(err)

		recorder := metadata.NewRecorder(metadata.NewLogSink(nil))
		b := index.NewBuilder(cfg.IndexOutDir(), cfg.IndexWorkDir(), recorder)
		exitOnError(b.BuildFromStore(context.Background(), cfg.StorePath(), cfg.IndexWorkers()))
		fmt.Printf("index built in %s from %s\n", cfg.IndexOutDir(), cfg.StorePath())
	},
}

func init() {
	buildIndexCmd.Flags().StringVar(&indexStorePath, "store-path", "documents.store", "document store to read")
	buildIndexCmd.Flags().StringVar(&indexOutDir, "index-out-dir", "", "directory the finished index is written to")
	buildIndexCmd.Flags().StringVar(&indexWorkDir, "index-work-dir", "", "scratch directory for intermediate blocks")
	buildIndexCmd.Flags().IntVar(&indexWorkersCLI, "index-workers", 0, "size of the ingestion worker pool")
}

func buildIndexConfig() (config.Config, error) {
	if cfgFile != "" {
		return config.WithConfigFile(cfgFile)
	}
	builder := config.WithDefault(nil).WithStorePath(indexStorePath)
	if indexOutDir != "" {
		builder = builder.WithIndexOutDir(indexOutDir)
	}
	if indexWorkDir != "" {
		builder = builder.WithIndexWorkDir(indexWorkDir)
	}
	if indexWorkersCLI > 0 {
		builder = builder.WithIndexWorkers(indexWorkersCLI)
	}
	return builder.Build()
}
