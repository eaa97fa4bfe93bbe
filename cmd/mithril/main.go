// Command mithril is the entrypoint for all four Mithril process roles:
// crawl, build-index, worker, and coordinator.
package main

import cmd "github.com/mithril-search/mithril/internal/cli"

func main() {
	cmd.Execute()
}
