package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/linkvet/internal/cache"
)

// cacheCmd groups page-text cache maintenance
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the page text cache",
	Long: `Manage the cache of fetched page text used by verify, batch and serve.
The backend is chosen by cache.backend (memory, disk, layered, redis).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := setup()
		if err != nil {
			return err
		}
		defer deps.close()

		if deps.cache == nil {
			return fmt.Errorf("cache is disabled")
		}
		if err := deps.cache.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ Cache cleared")
		return nil
	},
}

var cacheForgetCmd = &cobra.Command{
	Use:   "forget <url>...",
	Short: "Drop the cached text of specific links so the next verification refetches them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := setup()
		if err != nil {
			return err
		}
		defer deps.close()

		if deps.cache == nil {
			return fmt.Errorf("cache is disabled")
		}
		for _, link := range args {
			if err := deps.cache.Delete(cmd.Context(), cache.CacheKey(link)); err != nil {
				return fmt.Errorf("forget %s: %w", link, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Forgot %s\n", link)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd, cacheForgetCmd)
}
