package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/linkvet/internal/logging"
	"github.com/ppiankov/linkvet/internal/pipeline"
	"github.com/ppiankov/linkvet/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run linkvet as an HTTP node for the agent graph",
	Long: `Serve exposes verification over HTTP:

  POST /v1/verify           {"link": "..."}  -> {"relevantLinks": [...], "pageContents": [...]}
  POST /v1/extract          {"text": "...", "slack": false} -> {"urls": [...], "tweetIds": [...]}
  POST /v1/dates/validate   {"date": "12/9/2024 06:15 PM PST"} -> {"valid": true, "time": "..."}
  GET  /health
  GET  /ready               503 while the LLM provider is unreachable
  GET  /metrics             Prometheus metrics

A fetch failure answers 422, a model failure 502.

Example:
  linkvet serve --addr :8080
  LINKVET_LOGGING_FORMAT=json linkvet serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	deps, err := setup()
	if err != nil {
		return err
	}
	defer deps.close()

	if deps.cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	verifier, err := pipeline.NewVerifierFromConfig(deps.cfg, deps.cache, deps.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := verifier.Ready(ctx); err != nil {
		deps.logger.Warn("LLM provider not reachable, /ready will report unavailable", logging.Error(err))
	}

	deps.logger.Info("linkvet node starting",
		logging.String("version", version),
		logging.String("llm_provider", deps.cfg.LLM.Provider),
		logging.String("scrape_provider", deps.cfg.Scrape.Provider),
		logging.Bool("cache", deps.cache != nil),
	)

	return server.New(deps.cfg.Server, verifier, deps.logger).Run(ctx)
}
