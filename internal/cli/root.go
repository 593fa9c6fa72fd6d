package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/linkvet/internal/cache"
	"github.com/ppiankov/linkvet/internal/logging"
	"github.com/ppiankov/linkvet/internal/model"
)

// version is set at build time with -ldflags "-X github.com/ppiankov/linkvet/internal/cli.version=..."
var version = "v0.1.0"

const envPrefix = "LINKVET"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "linkvet",
	Short: "linkvet - verify that submitted links are relevant to your products",
	Long: `linkvet fetches the page behind a submitted link, asks a language model
whether the content actually uses the configured company's products, and
keeps the link and its text only when it does.

It is the content-verification step of a marketing content pipeline: run it
once per link, over a file of links, or as an HTTP node the agent graph calls.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "linkvet %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.linkvet/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.String("llm-provider", "", "LLM provider (anthropic, openai, ollama)")
	flags.String("llm-model", "", "LLM model name")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")
	flags.Bool("no-cache", false, "disable the page text cache (force fresh fetch)")
	flags.Bool("insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	flags.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	flags.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Bind flags to viper
	_ = viper.BindPFlag("llm.provider", flags.Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", flags.Lookup("llm-model"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("no_cache", flags.Lookup("no-cache"))
	_ = viper.BindPFlag("http.insecure_tls", flags.Lookup("insecure"))
	_ = viper.BindPFlag("http.http_proxy", flags.Lookup("http-proxy"))
	_ = viper.BindPFlag("http.https_proxy", flags.Lookup("https-proxy"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".linkvet"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	configureViper(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// configureViper registers defaults and environment bindings.
// Environment variables match LINKVET_<SECTION>_<KEY>, e.g. LINKVET_LLM_MODEL.
func configureViper(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := setDefaults(v, model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering config defaults: %v\n", err)
	}

	// Secrets and empty omitempty fields never reach the defaults dump,
	// so every key is bound explicitly for AutomaticEnv to see it
	bindEnvKeys(v, reflect.TypeOf(model.Config{}), "")
}

// bindEnvKeys binds every mapstructure key of t to its LINKVET_* variable
func bindEnvKeys(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}
		switch field.Type.Kind() {
		case reflect.Struct:
			bindEnvKeys(v, field.Type, prefix+key+".")
			continue
		case reflect.Map:
			// Maps come from the config file only
			continue
		}
		_ = v.BindEnv(prefix + key)
	}
}

// setDefaults registers every field of cfg as a viper default so that
// AutomaticEnv can override nested keys
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}

	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for key, val := range m {
			if nested, ok := val.(map[string]any); ok {
				walk(prefix+key+".", nested)
				continue
			}
			v.SetDefault(prefix+key, val)
		}
	}
	walk("", tree)

	return nil
}

// loadConfig resolves the effective configuration from v
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if v.GetBool("no_cache") {
		cfg.Cache.Enabled = false
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	applyProviderEnv(cfg)

	return cfg, nil
}

// applyProviderEnv fills secrets from the providers' conventional variables
func applyProviderEnv(cfg *model.Config) {
	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if strings.EqualFold(cfg.LLM.Provider, "ollama") && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	if cfg.Scrape.APIKey == "" {
		cfg.Scrape.APIKey = os.Getenv("FIRECRAWL_API_KEY")
	}
}

// runtimeDeps is what every command that verifies links needs
type runtimeDeps struct {
	cfg    *model.Config
	logger logging.Logger
	cache  cache.Cache
}

// setup loads configuration and builds the logger and cache
func setup() (*runtimeDeps, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &runtimeDeps{cfg: cfg, logger: logger, cache: c}, nil
}

// close flushes the logger and releases a cache that holds connections
func (d *runtimeDeps) close() {
	if closer, ok := d.cache.(io.Closer); ok {
		_ = closer.Close()
	}
	_ = d.logger.Sync()
}
