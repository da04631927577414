package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Agent     AgentConfig     `mapstructure:"agent"`
	WebSearch WebSearchConfig `mapstructure:"web_search"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// LLMConfig represents the Chat Completions endpoint configuration
type LLMConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	PathSuffix string `mapstructure:"path_suffix"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Timeout    int    `mapstructure:"timeout"`
}

// AgentConfig represents research agent behavior settings
type AgentConfig struct {
	MaxSearchResults int `mapstructure:"max_search_results"`
	MaxIterations    int `mapstructure:"max_iterations"` // tool-call loop cap
	FetchMaxChars    int `mapstructure:"fetch_max_chars"`
	FetchTimeout     int `mapstructure:"fetch_timeout"`
}

// WebSearchConfig represents web search configuration
type WebSearchConfig struct {
	Enabled   bool                      `mapstructure:"enabled"`
	Default   string                    `mapstructure:"default"` // Default provider name
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig represents a generic search provider configuration
type ProviderConfig struct {
	Type       string `mapstructure:"type"` // "mcp", "firecrawl"
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	ToolName   string `mapstructure:"tool_name"`   // MCP: tool name to call
	QueryParam string `mapstructure:"query_param"` // MCP: query parameter name
	Timeout    int    `mapstructure:"timeout"`
	MaxResults int    `mapstructure:"max_results"`
}

// TelemetryConfig represents the optional telemetry shim settings
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	Project string `mapstructure:"project"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"` // Database path, default ./data/research.db
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(cfgFile string) *Config {
	// Load .env file if exists (ignore error if not found)
	godotenv.Load()
	godotenv.Load(".env.local")

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure environment variable handling
	// Replace . with _ for nested config keys
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("SCOUT")
	v.AutomaticEnv()

	// Read config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")          // Same directory as executable (priority)
		v.AddConfigPath("./configs")  // configs/ subdirectory
		v.AddConfigPath("../configs") // For running from bin/ directory
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is ok, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic("Error reading config file: " + err.Error())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic("Error unmarshaling config: " + err.Error())
	}

	return &cfg
}

// Validate checks that mandatory settings are present. Missing optional keys
// degrade features instead (scrape fallback, telemetry off).
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required (set SCOUT_LLM_API_KEY or llm.api_key in config.yaml)")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// LLM defaults: any OpenAI-compatible Chat Completions endpoint works
	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("llm.path_suffix", "/chat/completions")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.timeout", 120)
	// Secrets default to empty so AutomaticEnv can bind them (viper only
	// sees env vars for keys it already knows about)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("telemetry.token", "")

	// Agent defaults
	v.SetDefault("agent.max_search_results", 5)
	v.SetDefault("agent.max_iterations", 5)
	v.SetDefault("agent.fetch_max_chars", 5000)
	v.SetDefault("agent.fetch_timeout", 10)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.project", "scout")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Storage defaults
	v.SetDefault("storage.path", "./data/research.db")

	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 300)

	// Web Search defaults
	v.SetDefault("web_search.enabled", true)
	v.SetDefault("web_search.default", "context7")
	v.SetDefault("web_search.providers.context7.type", "mcp")
	v.SetDefault("web_search.providers.context7.base_url", "https://mcp.context7.com/mcp")
	v.SetDefault("web_search.providers.context7.tool_name", "search")
	v.SetDefault("web_search.providers.context7.query_param", "query")
	v.SetDefault("web_search.providers.context7.timeout", 30)
	v.SetDefault("web_search.providers.context7.api_key", "")
	v.SetDefault("web_search.providers.firecrawl.type", "firecrawl")
	v.SetDefault("web_search.providers.firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("web_search.providers.firecrawl.timeout", 30)
	v.SetDefault("web_search.providers.firecrawl.max_results", 5)
	v.SetDefault("web_search.providers.firecrawl.api_key", "")
}
