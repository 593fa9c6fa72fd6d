package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/linkvet/internal/extract"
)

// extractCmd groups the text extraction utilities
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract URLs, tweet IDs and dates from text",
	Long: `Offline helpers for preparing verification input. Text is taken from the
arguments, or from stdin when no arguments are given.`,
}

var extractURLsCmd = &cobra.Command{
	Use:   "urls [text...]",
	Short: "Print every http(s) URL in the text, in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		return printLines(cmd, extract.ExtractURLs(text))
	},
}

var extractSlackCmd = &cobra.Command{
	Use:   "slack [text...]",
	Short: "Print the URLs of Slack-formatted links (<url|label>)",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		return printLines(cmd, extract.ExtractURLsFromSlackText(text))
	},
}

var extractTweetCmd = &cobra.Command{
	Use:   "tweet [text...]",
	Short: "Print the status ID of every tweet URL in the text",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		ids := extract.ExtractTweetIDs(extract.ExtractURLs(text))
		if len(ids) == 0 {
			return fmt.Errorf("no tweet URLs found")
		}
		return printLines(cmd, ids)
	},
}

var checkDateOnly bool

var extractDateCmd = &cobra.Command{
	Use:   "date <date string>",
	Short: `Validate "M/D/YYYY h:mm AM|PM TZ" and print it as RFC 3339 UTC`,
	Example: `  linkvet extract date "12/9/2024 06:15 PM PST"
  linkvet extract date --check "2/30/2024 06:15 PM PST"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if checkDateOnly {
			return printLines(cmd, []string{strconv.FormatBool(extract.IsValidDateString(text))})
		}

		t, err := extract.DateFromTimezoneDateString(text)
		if err != nil {
			return err
		}
		return printLines(cmd, []string{t.UTC().Format(time.RFC3339)})
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.AddCommand(extractURLsCmd, extractSlackCmd, extractTweetCmd, extractDateCmd)

	extractDateCmd.Flags().BoolVar(&checkDateOnly, "check", false, "print true or false instead of the parsed time")
}

// readInput joins args, or reads stdin when there are none
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func printLines(cmd *cobra.Command, lines []string) error {
	out := cmd.OutOrStdout()
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
