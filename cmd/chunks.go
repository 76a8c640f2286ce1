package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/zjrosen/lexkit/internal/report"
	"github.com/zjrosen/lexkit/internal/textutil"
)

var (
	chunksMinNewlines int
	chunksWrap        int
)

var chunksCmd = &cobra.Command{
	Use:   "chunks [file]",
	Short: "Split a file into paragraphs at runs of blank lines",
	Long: `Split a file at runs of at least --min-newlines line breaks. The newline
style (\n, \r\n or \r) is detected from the text.

Examples:
  lexkit chunks --min-newlines 3 notes.txt
  lexkit chunks --format json notes.txt | jq length`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		text, err := readInput(cmd, path)
		if err != nil {
			return err
		}

		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		chunks := textutil.Chunks(text, chunksMinNewlines)
		if chunks == nil {
			chunks = []string{}
		}
		out := cmd.OutOrStdout()
		if format == report.FormatJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(chunks)
		}
		sep := textutil.NewlineFormat(text)
		if sep == "" {
			sep = "\n"
		}
		for i, c := range chunks {
			if chunksWrap > 0 {
				c = wordwrap.String(c, chunksWrap)
			}
			fmt.Fprintf(out, "--- chunk %d (%d lines)\n%s\n", i+1, strings.Count(c, sep)+1, c)
		}
		return nil
	},
}

func init() {
	chunksCmd.Flags().IntVarP(&chunksMinNewlines, "min-newlines", "n", 2, "line breaks that separate chunks")
	chunksCmd.Flags().IntVar(&chunksWrap, "wrap", 0, "wrap text output at this width (0: no wrap)")
	chunksCmd.Flags().StringP("format", "f", "", "output format: text or json")
	rootCmd.AddCommand(chunksCmd)
}
