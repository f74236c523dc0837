// Command sstdump opens one SST file directly, outside of any running
// engine, and prints its sparse index size plus every record it holds.
// It has no dependency on internal/engine or internal/catalog — only
// the package the on-disk format itself needs, keeping this small
// diagnostic tool separate from the engine proper.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ridgekv/internal/sstable"
)

func main() {
	cmd := &cobra.Command{
		Use:   "sstdump <path-to-sstable-file>",
		Short: "Print an SST's sparse index size and every record it holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dump(cmd.OutOrStdout(), args[0])
		},
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dump(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	tbl, err := sstable.Open(f, info.Size())
	if err != nil {
		return err
	}
	defer tbl.Close()

	records, err := tbl.All()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "index entries: %d  min: %d  max: %d\n", tbl.Count(), tbl.MinKey(), tbl.MaxKey())
	for _, r := range records {
		tag := ""
		if r.Tombstone() {
			tag = "\ttombstone"
		}
		fmt.Fprintf(w, "%d\t%d\t%d%s\n", r.Key, r.Timestamp, len(r.Value), tag)
	}
	return nil
}
