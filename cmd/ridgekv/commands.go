package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ridgekv/internal/config"
	"ridgekv/internal/engine"
	"ridgekv/internal/obslog"
	"ridgekv/internal/storagefs"
)

// openStore loads config, applies the --data-dir override, and opens
// the engine against it, wiring a zap logger per --dev-log.
func openStore() (*engine.Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	log, err := obslog.New(devLog)
	if err != nil {
		return nil, err
	}
	return engine.Open(cfg, storagefs.OS{}, log)
}

func parseKey(s string) (uint64, error) {
	key, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid key %q: must be an unsigned integer", s)
	}
	return key, nil
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <value>",
		Short: "Insert or overwrite a key's value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			e, err := openStore()
			if err != nil {
				return err
			}
			defer e.Close()
			return e.Put(key, []byte(args[1]))
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a key's current value, or nothing if it has none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			e, err := openStore()
			if err != nil {
				return err
			}
			defer e.Close()
			v, err := e.Get(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a key's current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			e, err := openStore()
			if err != nil {
				return err
			}
			defer e.Close()
			removed, err := e.Delete(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), removed)
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard every key and start over with an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openStore()
			if err != nil {
				return err
			}
			defer e.Close()
			return e.Reset()
		},
	}
}
