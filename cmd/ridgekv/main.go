// Command ridgekv is the one-shot and interactive CLI front end for the
// storage engine: each of put/get/delete/reset opens the engine,
// performs one operation against --data-dir, and exits; serve keeps an
// engine open across a line-oriented REPL session.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configPath string
	devLog     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ridgekv",
		Short: "A persistent ordered key-value store on the LSM pattern",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "overrides config's data_dir")
	root.PersistentFlags().BoolVar(&devLog, "dev-log", false, "use the human-readable development log encoder")

	root.AddCommand(
		newPutCmd(),
		newGetCmd(),
		newDeleteCmd(),
		newResetCmd(),
		newServeCmd(),
	)
	return root
}
