// Package cmd wires Mithril's four process roles (crawl, build-index,
// worker, coordinator) into a cobra command tree, following the teacher's
// internal/cli/root.go shape: persistent flags overlay config.WithDefault
// via method chaining, and a --config-file flag short-circuits straight to
// config.WithConfigFile.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mithril-search/mithril/internal/build"
)

var cfgFile string

// rootCmd is Mithril's entrypoint; it carries no Run of its own, per spec
// §2's four distinct roles, each its own subcommand.
var rootCmd = &cobra.Command{
	Use:   "mithril",
	Short: "Mithril is a distributed web search engine.",
	Long: `Mithril crawls the web, builds an inverted index, and answers
ranked text queries over a sharded query-serving layer.

Each process role is a subcommand: crawl discovers and stores documents,
build-index turns a document store into a queryable index, worker serves
queries for one host's shards, and coordinator fans a query out across
worker hosts.`,
}

// Execute runs the command tree. Called once from cmd/mithril/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(buildIndexCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(coordinatorCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(build.FullVersion())
	},
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
