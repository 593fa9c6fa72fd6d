package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/linkvet/internal/extract"
	"github.com/ppiankov/linkvet/internal/pipeline"
	"github.com/ppiankov/linkvet/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
	fromMessage  bool
	slackFormat  bool
	outFile      string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify many links from a file in parallel",
	Long: `Batch verifies links concurrently and prints the merged result: every
relevant link with its page text, in input order.

By default the file lists one URL per line ('#' starts a comment). With
--message the file is a free-text message and its URLs are extracted first;
add --slack for Slack-formatted messages (<url|label>).

Example:
  linkvet batch urls.txt
  linkvet batch urls.txt --concurrency 8 --out relevant.json
  linkvet batch submission.txt --message --slack`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&fromMessage, "message", false, "treat the file as a message and extract its URLs")
	batchCmd.Flags().BoolVar(&slackFormat, "slack", false, "with --message, parse Slack link markup")
	batchCmd.Flags().StringVar(&outFile, "out", "", "write the merged result to a file instead of stdout")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	urls, err := readBatchURLs(file, fromMessage, slackFormat)
	if err != nil {
		return err
	}

	deps, err := setup()
	if err != nil {
		return err
	}
	defer deps.close()

	workers := deps.cfg.Concurrency.Workers
	if concurrency > 0 {
		workers = concurrency
	}

	verifier, err := pipeline.NewVerifierFromConfig(deps.cfg, deps.cache, deps.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Verifying %d URLs with %d workers...\n", len(urls), workers)

	processor := worker.NewBatchProcessor(verifier, workers)
	results := processor.ProcessURLs(ctx, urls)

	relevant, failed := 0, 0
	for _, r := range results {
		switch {
		case r.Error != nil:
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.URL, r.Error)
		case r.Relevant():
			relevant++
			fmt.Fprintf(os.Stderr, "✓ %s: relevant\n", r.URL)
		default:
			fmt.Fprintf(os.Stderr, "· %s: not relevant\n", r.URL)
		}
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d  Relevant: %d  Not relevant: %d  Failed: %d\n",
		len(results), relevant, len(results)-relevant-failed, failed)

	merged := worker.MergeResults(results)
	if outFile == "" {
		return writeJSON(cmd, merged)
	}
	return writeJSONFile(outFile, merged)
}

// readBatchURLs loads the URL list, either one per line or extracted from a message
func readBatchURLs(file string, message, slack bool) ([]string, error) {
	if !message {
		urls, err := worker.ReadURLsFromFile(file)
		if err != nil {
			return nil, fmt.Errorf("read URLs: %w", err)
		}
		return urls, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	var found []string
	if slack {
		found = extract.ExtractURLsFromSlackText(string(data))
	} else {
		found = extract.ExtractURLs(string(data))
	}

	// A message may repeat a link; verify each once
	seen := make(map[string]bool, len(found))
	urls := make([]string, 0, len(found))
	for _, u := range found {
		u = strings.TrimRight(u, ".,;:!?)")
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls, nil
}
