package model

import (
	"time"

	"github.com/ppiankov/linkvet/internal/logging"
)

// Config is the complete linkvet configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Scrape       ScrapeConfig       `yaml:"scrape" mapstructure:"scrape"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Prompt       PromptConfig       `yaml:"prompt" mapstructure:"prompt"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Logging      logging.Config     `yaml:"logging" mapstructure:"logging"`
}

// HTTPConfig configures the plain-text page fetcher
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRedirects  int           `yaml:"max_redirects" mapstructure:"max_redirects"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ScrapeConfig configures the primary scrape backend
type ScrapeConfig struct {
	// Provider: "firecrawl" or "" (disabled, fallback fetch only)
	Provider string        `yaml:"provider" mapstructure:"provider"`
	APIKey   string        `yaml:"-" mapstructure:"api_key"`
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LLMConfig configures the relevance classifier's model
type LLMConfig struct {
	// Provider: "anthropic", "openai", "ollama"
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PromptConfig holds the product context baked into the classifier's system prompt
type PromptConfig struct {
	Company         string `yaml:"company" mapstructure:"company"`
	ProductsContext string `yaml:"products_context" mapstructure:"products_context"`
}

// CacheConfig configures the page-text cache
type CacheConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Backend: "memory", "disk", "layered", "redis"
	Backend   string        `yaml:"backend" mapstructure:"backend"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	RedisAddr string        `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
	RedisDB   int           `yaml:"redis_db" mapstructure:"redis_db"`
	// RedisPassword is read from the environment only
	RedisPassword string `yaml:"-" mapstructure:"redis_password"`
}

// ConcurrencyConfig configures batch verification
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig configures per-domain fetch rate limits
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
	// Domains overrides requests_per_second for individual hosts
	Domains map[string]float64 `yaml:"domains,omitempty" mapstructure:"domains"`
}

// ServerConfig configures `linkvet serve`
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// RequestTimeout bounds a single verification, since the node itself sets no deadline
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "linkvet/0.1 (+https://github.com/ppiankov/linkvet)",
			MaxBodyBytes:  2_000_000,
			MaxRedirects:  5,
			RespectRobots: true,
		},
		Scrape: ScrapeConfig{
			Provider: "firecrawl",
			BaseURL:  "https://api.firecrawl.dev",
			Timeout:  60 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "anthropic",
			Model:     "claude-3-5-sonnet-20241022",
			Timeout:   60,
			MaxTokens: 1024,
		},
		Prompt: PromptConfig{
			Company:         DefaultCompany,
			ProductsContext: DefaultProductsContext,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   "layered",
			Dir:       ".linkvet-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   3 * time.Minute,
			RequestTimeout: 2 * time.Minute,
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultCompany is the company whose products content is verified against
const DefaultCompany = "LangChain"

// DefaultProductsContext describes the products the classifier looks for
const DefaultProductsContext = `- **LangChain** - the open-source framework for building LLM applications: chains, retrievers, tools, agents, and integrations with model providers and vector stores (Python and JS/TS).
- **LangGraph** - the low-level orchestration framework for building stateful, multi-actor agents as graphs, including LangGraph Platform/Cloud for deploying them.
- **LangSmith** - the platform for tracing, debugging, evaluating, testing and monitoring LLM applications, usable with or without LangChain.`
