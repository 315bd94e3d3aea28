package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ansarctica/ross/internal/catalog"
	"github.com/ansarctica/ross/internal/types"
)

var (
	in    string
	out   string
	strip bool
)

var rootCmd = &cobra.Command{
	Use:          "jsontogob",
	Short:        "Convert a programs JSON export into the server's gob catalog",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		n, err := convert(in, out, strip)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d programs to %s\n", n, out)
		return nil
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&in, "in", "data/programs.json", "input JSON file")
	f.StringVar(&out, "out", "data/programs.gob", "output GOB file")
	f.BoolVar(&strip, "strip", false, "drop per-requirement course lists after indexing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func convert(in, out string, strip bool) (int, error) {
	raw, err := os.ReadFile(in)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", in, err)
	}
	var programs []types.Program
	if err := json.Unmarshal(raw, &programs); err != nil {
		return 0, fmt.Errorf("json unmarshal: %w", err)
	}

	for i := range programs {
		programs[i].BuildCourseIndex(strip)
	}

	b, err := catalog.Encode(programs)
	if err != nil {
		return 0, fmt.Errorf("gob encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir %s: %w", filepath.Dir(out), err)
	}
	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return 0, fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, out); err != nil {
		return 0, fmt.Errorf("rename tmp->out: %w", err)
	}
	return len(programs), nil
}
