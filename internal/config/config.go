// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// Components depend on this rather than on *Config so tests can hand in a
// trimmed down value.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Agent() AgentConfig
	Runner() RunnerConfig
	Metrics() MetricsConfig

	// Runner Setters (CLI flags)
	SetRunnerBaseURL(string)
	SetRunnerConcurrency(int)
	SetRunnerReportFile(string)

	// Browser Setters
	SetBrowserHeadless(bool)

	Validate() error
}

var _ Interface = (*Config)(nil)

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	AgentCfg   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	RunnerCfg  RunnerConfig  `mapstructure:"runner" yaml:"runner"`
	MetricsCfg MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Agent() AgentConfig     { return c.AgentCfg }
func (c *Config) Runner() RunnerConfig   { return c.RunnerCfg }
func (c *Config) Metrics() MetricsConfig { return c.MetricsCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetRunnerBaseURL(u string)    { c.RunnerCfg.BaseURL = u }
func (c *Config) SetRunnerConcurrency(n int)   { c.RunnerCfg.Concurrency = n }
func (c *Config) SetRunnerReportFile(p string) { c.RunnerCfg.ReportFile = p }
func (c *Config) SetBrowserHeadless(b bool)    { c.BrowserCfg.Headless = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the terminal color used for each log level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ViewportConfig is a width/height pair in CSS pixels.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// BrowserConfig holds settings for the browser the agent drives.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	ScreenshotQuality int            `mapstructure:"screenshot_quality" yaml:"screenshot_quality"`
	// ActionTimeout bounds each individual browser call.
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// NavigationSettle is how long to wait after load before the page is considered stable.
	NavigationSettle time.Duration `mapstructure:"navigation_settle" yaml:"navigation_settle"`
}

// AgentConfig holds settings for the agent loop and its model.
type AgentConfig struct {
	MaxTurns      int            `mapstructure:"max_turns" yaml:"max_turns"`
	ModelMaxSteps int            `mapstructure:"model_max_steps" yaml:"model_max_steps"`
	Display       ViewportConfig `mapstructure:"display" yaml:"display"`
	LLM           LLMModelConfig `mapstructure:"llm" yaml:"llm"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// LLMModelConfig defines the configuration for the model the agent talks to.
type LLMModelConfig struct {
	Provider LLMProvider `mapstructure:"provider" yaml:"provider"`
	Model    string      `mapstructure:"model" yaml:"model"`
	APIKey   string      `mapstructure:"api_key" yaml:"api_key"`
	// Endpoint overrides the provider's base URL. Empty uses the default.
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	TopP        float32       `mapstructure:"top_p" yaml:"top_p"`
	TopK        int           `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	// RequestsPerSecond throttles model calls across all concurrent sessions.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
	MaxRetries        int     `mapstructure:"max_retries" yaml:"max_retries"`
}

// RunnerConfig configures suite execution.
type RunnerConfig struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
	SessionTimeout time.Duration `mapstructure:"session_timeout" yaml:"session_timeout"`
	ReportFile     string        `mapstructure:"report_file" yaml:"report_file"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "vistest")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport.width", 1920)
	v.SetDefault("browser.viewport.height", 1080)
	v.SetDefault("browser.screenshot_quality", 80)
	v.SetDefault("browser.action_timeout", "30s")
	v.SetDefault("browser.navigation_settle", "500ms")

	// -- Agent --
	v.SetDefault("agent.max_turns", 10)
	v.SetDefault("agent.model_max_steps", 10)
	v.SetDefault("agent.display.width", 1920)
	v.SetDefault("agent.display.height", 1080)
	v.SetDefault("agent.llm.provider", string(ProviderGemini))
	v.SetDefault("agent.llm.model", "gemini-2.5-flash")
	v.SetDefault("agent.llm.api_timeout", "2m")
	v.SetDefault("agent.llm.temperature", 0.2)
	v.SetDefault("agent.llm.top_p", 0.95)
	v.SetDefault("agent.llm.top_k", 40)
	v.SetDefault("agent.llm.max_tokens", 4096)
	v.SetDefault("agent.llm.requests_per_second", 2.0)
	v.SetDefault("agent.llm.burst", 4)
	v.SetDefault("agent.llm.max_retries", 3)

	// -- Runner --
	v.SetDefault("runner.base_url", "")
	v.SetDefault("runner.concurrency", 2)
	v.SetDefault("runner.session_timeout", "5m")
	v.SetDefault("runner.report_file", "")

	// -- Metrics --
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9464")
}

// BindEnv wires the environment variables that do not follow the automatic
// VISTEST_ naming. GEMINI_API_KEY is accepted for the model key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("VISTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("agent.llm.api_key", "VISTEST_AGENT_LLM_API_KEY", "GEMINI_API_KEY")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	BindEnv(v)

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.LoggerCfg.LogFile != "" {
		expanded, err := homedir.Expand(cfg.LoggerCfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("could not expand logger.log_file: %w", err)
		}
		cfg.LoggerCfg.LogFile = expanded
	}
	if cfg.RunnerCfg.ReportFile != "" {
		expanded, err := homedir.Expand(cfg.RunnerCfg.ReportFile)
		if err != nil {
			return nil, fmt.Errorf("could not expand runner.report_file: %w", err)
		}
		cfg.RunnerCfg.ReportFile = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values. The
// model API key is not checked here; commands that reach the model do that so
// `vistest version` works without one.
func (c *Config) Validate() error {
	if c.BrowserCfg.Viewport.Width <= 0 || c.BrowserCfg.Viewport.Height <= 0 {
		return fmt.Errorf("browser.viewport width and height must be positive")
	}
	if q := c.BrowserCfg.ScreenshotQuality; q < 1 || q > 100 {
		return fmt.Errorf("browser.screenshot_quality must be between 1 and 100")
	}
	if c.BrowserCfg.ActionTimeout <= 0 {
		return fmt.Errorf("browser.action_timeout must be a positive duration")
	}
	if err := c.AgentCfg.Validate(); err != nil {
		return fmt.Errorf("agent configuration invalid: %w", err)
	}
	if c.RunnerCfg.Concurrency <= 0 {
		return fmt.Errorf("runner.concurrency must be a positive integer")
	}
	if c.RunnerCfg.SessionTimeout <= 0 {
		return fmt.Errorf("runner.session_timeout must be a positive duration")
	}
	if c.MetricsCfg.Enabled && c.MetricsCfg.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}

// Validate checks the AgentConfig settings.
func (a *AgentConfig) Validate() error {
	if a.MaxTurns <= 0 {
		return fmt.Errorf("max_turns must be greater than 0")
	}
	if a.ModelMaxSteps <= 0 {
		return fmt.Errorf("model_max_steps must be greater than 0")
	}
	if a.Display.Width <= 0 || a.Display.Height <= 0 {
		return fmt.Errorf("display width and height must be positive")
	}
	if a.LLM.Provider != ProviderGemini {
		return fmt.Errorf("unsupported llm.provider %q", a.LLM.Provider)
	}
	if a.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if a.LLM.RequestsPerSecond <= 0 {
		return fmt.Errorf("llm.requests_per_second must be positive")
	}
	if a.LLM.Burst <= 0 {
		return fmt.Errorf("llm.burst must be positive")
	}
	return nil
}
