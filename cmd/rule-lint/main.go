// Package main provides the rule-lint command line interface.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/spf13/cobra"

	"github.com/agentrules/rule-lint/internal/indexing"
	"github.com/agentrules/rule-lint/internal/pipeline"
	"github.com/agentrules/rule-lint/internal/report"
)

// Version information (set at build time).
var (
	Version = "0.3.1"
)

var verbose bool

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(report.ExitFailures)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rule-lint <root-directory>",
		Short: "Lint AI agent rule documents for contradictory directives",
		Long: `rule-lint scans a directory of Markdown rule documents, extracts the
directives they state (always/never/must/should and friends), resolves
each directive to a topic, and reports pairs that contradict each other.

Exit codes:
  0  no conflicts found
  1  one or more conflicting rule pairs
  2  one or more documents could not be read or parsed`,
		Example: `  # Lint the rules shipped with a repository
  rule-lint ./docs/rules

  # Quiet progress logging off, report only
  rule-lint ./docs/rules 2>/dev/null`,
		Version:       Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args[0])
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Show pipeline progress and skipped sentences on stderr")

	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newSearchCmd())

	return rootCmd
}

// configureLogging sends pipeline progress to stderr, or discards it
// entirely unless -V is set. The report itself always goes to stdout.
func configureLogging() {
	if verbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}
}

func runLint(cmd *cobra.Command, root string) error {
	configureLogging()

	result, err := pipeline.Run(root)
	if err != nil {
		return fmt.Errorf("cannot lint %s: %w", root, err)
	}

	result.Report.Render(cmd.OutOrStdout(), cmd.ErrOrStderr())
	os.Exit(result.Report.ExitCode())
	return nil
}

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <root-directory> <index-dir>",
		Short: "Build a standalone search index from a rule corpus",
		Long: `Extracts every rule from the corpus and writes a Bleve full-text index
to the given directory. The index can then be queried with the search
subcommand without re-parsing the corpus.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args[0], args[1])
		},
	}
}

func runIndex(cmd *cobra.Command, root, indexDir string) error {
	configureLogging()

	result, err := pipeline.Run(root)
	if err != nil {
		return fmt.Errorf("cannot index %s: %w", root, err)
	}

	chunks := indexing.ChunksFromRecords(result.Records)
	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d rule chunk(s) from %d document(s)\n",
		len(chunks), result.Report.Documents)

	// Replace any previous index wholesale
	if err := os.RemoveAll(indexDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(indexDir), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	mapping := bleve.NewIndexMapping()
	index, err := bleve.New(indexDir, mapping)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	batch := index.NewBatch()
	for i, chunk := range chunks {
		if err := batch.Index(chunk.ID, chunk); err != nil {
			index.Close()
			return fmt.Errorf("failed to add chunk %s to batch: %w", chunk.ID, err)
		}
		if (i+1)%100 == 0 {
			if err := index.Batch(batch); err != nil {
				index.Close()
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			index.Close()
			return fmt.Errorf("failed to index final batch: %w", err)
		}
	}

	if err := index.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Index written to %s (schema v%d)\n", indexDir, indexing.IndexSchemaVersion)
	return nil
}

func newSearchCmd() *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:           "search <index-dir> <query>",
		Short:         "Query a rule index built with the index subcommand",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], args[1], maxResults)
		},
	}

	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 10, "Maximum number of results")

	return cmd
}

func runSearch(cmd *cobra.Command, indexDir, query string, maxResults int) error {
	configureLogging()

	index, err := bleve.Open(indexDir)
	if err != nil {
		return fmt.Errorf("failed to open index %s: %w", indexDir, err)
	}
	defer index.Close()

	search := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	search.Size = maxResults
	search.Fields = []string{"*"}

	results, err := index.Search(search)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d hit(s) for %q\n", results.Total, query)
	for _, hit := range results.Hits {
		topic, _ := hit.Fields["topic"].(string)
		strength, _ := hit.Fields["strength"].(string)
		statement, _ := hit.Fields["statement"].(string)
		document, _ := hit.Fields["document"].(string)
		line := 0
		if v, ok := hit.Fields["line"].(float64); ok {
			line = int(v)
		}
		fmt.Fprintf(out, "  %.3f  [%s] %-10s %s:%d  %q\n", hit.Score, topic, strength, document, line, statement)
	}

	return nil
}
