package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/zjrosen/lexkit/internal/index"
	"github.com/zjrosen/lexkit/internal/report"
)

var (
	capFile  string
	capLexer string
	capLimit int
	capRuns  bool
)

var capturesCmd = &cobra.Command{
	Use:   "captures",
	Short: "List captures recorded by scan --index",
	Long: `List captures stored in the index database, newest scan first.

Examples:
  # Everything captured from one file
  lexkit captures --file include/Callable.hpp

  # Only identifiers, as JSON
  lexkit captures --lexer identifier --format json

  # Recent scans
  lexkit captures --runs --limit 5`,
	RunE: runCaptures,
}

func init() {
	capturesCmd.Flags().StringVar(&capFile, "file", "", "only captures from this file")
	capturesCmd.Flags().StringVar(&capLexer, "lexer", "", "only captures made by this lexer")
	capturesCmd.Flags().IntVarP(&capLimit, "limit", "n", 0, "maximum rows (0: no limit)")
	capturesCmd.Flags().BoolVar(&capRuns, "runs", false, "list scan runs instead of captures")
	capturesCmd.Flags().StringP("format", "f", "", "output format: text or json")
	rootCmd.AddCommand(capturesCmd)
}

func runCaptures(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if cfg.Index.Path == "" {
		return fmt.Errorf("index.path is not configured")
	}

	idx, err := index.NewDB(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer func() { _ = idx.Close() }()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if capRuns {
		runs, err := idx.Runs(ctx, capLimit)
		if err != nil {
			return err
		}
		if format == report.FormatJSON {
			return json.NewEncoder(out).Encode(runs)
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %s  %s  %s  final=%s\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.File, r.Grammar, r.Final)
		}
		return nil
	}

	entries, err := idx.Captures(ctx, index.Filter{File: capFile, Lexer: capLexer, Limit: capLimit})
	if err != nil {
		return err
	}
	if format == report.FormatJSON {
		return json.NewEncoder(out).Encode(entries)
	}

	width := 0
	for _, e := range entries {
		width = max(width, runewidth.StringWidth(e.File))
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %d:%d  %s  %s\n",
			runewidth.FillRight(e.File, width), e.Line, e.Column, e.Lexer, e.Text)
	}
	return nil
}
