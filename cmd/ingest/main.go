package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ansarctica/ross/internal/degreeplan"
	"github.com/ansarctica/ross/internal/scrape"
)

var (
	inPath      string
	htmlPath    string
	textReport  bool
	showSkipped bool
)

type input struct {
	OrderedLabels   []string              `json:"orderedLabels"`
	Entries         []degreeplan.RawEntry `json:"entries"`
	DetailedListing []degreeplan.RawEntry `json:"detailedListing"`
}

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Normalize a scraped degree plan into semester buckets",
	Long: `ingest reads either a JSON document {orderedLabels, entries,
detailedListing} or a saved degree-plan HTML page and prints the resulting
registry as JSON, or as a text report with --text.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		labels, entries, err := load()
		if err != nil {
			return err
		}
		return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), labels, entries)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&inPath, "in", "", "JSON input file (- for stdin)")
	f.StringVar(&htmlPath, "html", "", "saved degree-plan HTML page")
	f.BoolVar(&textReport, "text", false, "print a text report instead of JSON")
	f.BoolVar(&showSkipped, "skipped", false, "list bubble text that was left out")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func load() ([]string, []degreeplan.RawEntry, error) {
	switch {
	case htmlPath != "" && inPath != "":
		return nil, nil, errors.New("use either --in or --html, not both")
	case htmlPath != "":
		f, err := os.Open(htmlPath)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		page, err := scrape.Parse(f)
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", htmlPath, err)
		}
		return page.OrderedLabels, page.Entries, nil
	case inPath != "":
		var r io.Reader = os.Stdin
		if inPath != "-" {
			f, err := os.Open(inPath)
			if err != nil {
				return nil, nil, err
			}
			defer f.Close()
			r = f
		}
		var in input
		if err := json.NewDecoder(r).Decode(&in); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", inPath, err)
		}
		return in.OrderedLabels, append(in.Entries, in.DetailedListing...), nil
	default:
		return nil, nil, errors.New("one of --in or --html is required")
	}
}

func run(stdout, stderr io.Writer, labels []string, entries []degreeplan.RawEntry) error {
	res := degreeplan.IngestDetailed(labels, entries)

	if textReport {
		if _, err := io.WriteString(stdout, degreeplan.RenderText(res.Registry)); err != nil {
			return err
		}
	} else {
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Registry); err != nil {
			return err
		}
	}

	if showSkipped {
		for _, s := range res.Skipped {
			fmt.Fprintf(stderr, "skipped: %s\n", s)
		}
		for _, s := range res.Unassigned {
			fmt.Fprintf(stderr, "unassigned: %s\n", s)
		}
	} else if n := len(res.Skipped) + len(res.Unassigned); n > 0 {
		fmt.Fprintf(stderr, "%d bubble(s) left out; rerun with --skipped to list them\n", n)
	}
	return nil
}
