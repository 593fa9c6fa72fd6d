package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/linkvet/internal/extract"
	"github.com/ppiankov/linkvet/internal/logging"
	"github.com/ppiankov/linkvet/internal/model"
	"github.com/ppiankov/linkvet/internal/pipeline"
)

var verifyTimeout time.Duration

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <url>",
	Short: "Verify a single link",
	Long: `Verify fetches the page behind a link and asks the configured language model
whether it is relevant to the company's products.

The result is printed as JSON in the shape the agent graph merges into its state:
  {"relevantLinks": ["<url>"], "pageContents": ["<text>"]}   relevant
  {"relevantLinks": [], "pageContents": []}                  not relevant

Example:
  linkvet verify https://blog.example.com/building-agents-with-langgraph
  linkvet verify https://example.com --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 2*time.Minute, "overall verification timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	link := strings.TrimSpace(args[0])
	if !extract.IsURL(link) {
		return fmt.Errorf("not an absolute http(s) URL: %s", args[0])
	}

	deps, err := setup()
	if err != nil {
		return err
	}
	defer deps.close()

	verifier, err := pipeline.NewVerifierFromConfig(deps.cfg, deps.cache, deps.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), verifyTimeout)
	defer cancel()

	deps.logger.Debug("verifying link",
		logging.String("url", link),
		logging.String("provider", deps.cfg.LLM.Provider),
		logging.Duration("timeout", verifyTimeout),
		logging.Bool("cache", deps.cache != nil),
	)

	result, err := verifier.Verify(ctx, model.VerificationRequest{Link: link})
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrFetchFailed):
			return fmt.Errorf("fetch failed: %w", err)
		case errors.Is(err, pipeline.ErrClassificationFailed):
			return fmt.Errorf("could not classify %s: %w", link, err)
		default:
			return fmt.Errorf("verify failed: %w", err)
		}
	}

	if verbose {
		verdict := "not relevant"
		if result.IsRelevant() {
			verdict = "relevant"
		}
		fmt.Fprintf(os.Stderr, "✓ %s: %s\n", link, verdict)
	}

	return writeJSON(cmd, result)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// writeJSONFile writes v as indented JSON to path
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
