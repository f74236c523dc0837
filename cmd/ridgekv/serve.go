package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ridgekv/internal/engine"
)

// parsedLine is one decoded REPL command: a verb plus whatever
// arguments it takes, parsed from a single line of space-separated
// text. Everything after the key is the value, spaces included.
type parsedLine struct {
	verb  string
	key   uint64
	value string
}

var errEmptyLine = fmt.Errorf("empty command")

func parseLine(line string) (*parsedLine, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, errEmptyLine
	}
	parts := strings.SplitN(line, " ", 3)
	verb := strings.ToUpper(parts[0])

	switch verb {
	case "RESET", "QUIT":
		return &parsedLine{verb: verb}, nil
	case "GET", "DELETE":
		if len(parts) < 2 {
			return nil, fmt.Errorf("%s requires a key", verb)
		}
		key, err := parseKey(parts[1])
		if err != nil {
			return nil, err
		}
		return &parsedLine{verb: verb, key: key}, nil
	case "PUT":
		if len(parts) < 3 {
			return nil, fmt.Errorf("PUT requires a key and a value")
		}
		key, err := parseKey(parts[1])
		if err != nil {
			return nil, err
		}
		return &parsedLine{verb: verb, key: key, value: parts[2]}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s", parts[0])
	}
}

func runREPL(e *engine.Engine, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd, err := parseLine(scanner.Text())
		if err != nil {
			if err == errEmptyLine {
				continue
			}
			fmt.Fprintln(w, "ERR", err)
			continue
		}

		switch cmd.verb {
		case "QUIT":
			return nil
		case "RESET":
			if err := e.Reset(); err != nil {
				fmt.Fprintln(w, "ERR", err)
				continue
			}
			fmt.Fprintln(w, "OK")
		case "PUT":
			if err := e.Put(cmd.key, []byte(cmd.value)); err != nil {
				fmt.Fprintln(w, "ERR", err)
				continue
			}
			fmt.Fprintln(w, "OK")
		case "GET":
			v, err := e.Get(cmd.key)
			if err != nil {
				fmt.Fprintln(w, "ERR", err)
				continue
			}
			fmt.Fprintln(w, v)
		case "DELETE":
			removed, err := e.Delete(cmd.key)
			if err != nil {
				fmt.Fprintln(w, "ERR", err)
				continue
			}
			fmt.Fprintln(w, removed)
		}
	}
	return scanner.Err()
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a line-oriented REPL (PUT/GET/DELETE/RESET/QUIT) over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openStore()
			if err != nil {
				return err
			}
			defer e.Close()
			return runREPL(e, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
