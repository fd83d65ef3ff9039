// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Probe() ProbeConfig
	Output() OutputConfig
	Plan() PlanConfig

	// Setters used by CLI flag overrides.
	SetBrowserDriver(string)
	SetBrowserHeadless(bool)
	SetProbeAnnotate(bool)
	SetProbeIndexMode(string)
	SetOutputDir(string)
	SetOutputFormat(string)
	SetOutputScreenshot(bool)
	SetOutputMarkdown(bool)
}

// Config holds the entire application configuration.
// Sections are reached through the Interface getters.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	ProbeCfg   ProbeConfig   `mapstructure:"probe" yaml:"probe"`
	OutputCfg  OutputConfig  `mapstructure:"output" yaml:"output"`
	PlanCfg    PlanConfig    `mapstructure:"plan" yaml:"plan"`
}

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Probe() ProbeConfig     { return c.ProbeCfg }
func (c *Config) Output() OutputConfig   { return c.OutputCfg }
func (c *Config) Plan() PlanConfig       { return c.PlanCfg }

func (c *Config) SetBrowserDriver(d string)    { c.BrowserCfg.Driver = d }
func (c *Config) SetBrowserHeadless(b bool)    { c.BrowserCfg.Headless = b }
func (c *Config) SetProbeAnnotate(b bool)      { c.ProbeCfg.Annotate = b }
func (c *Config) SetProbeIndexMode(m string)   { c.ProbeCfg.IndexMode = m }
func (c *Config) SetOutputDir(dir string)      { c.OutputCfg.Dir = dir }
func (c *Config) SetOutputFormat(f string)     { c.OutputCfg.Format = f }
func (c *Config) SetOutputScreenshot(b bool)   { c.OutputCfg.Screenshot = b }
func (c *Config) SetOutputMarkdown(b bool)     { c.OutputCfg.Markdown = b }

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

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// Supported browser drivers.
const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
)

// BrowserConfig controls how the page under inspection is loaded.
type BrowserConfig struct {
	Driver            string         `mapstructure:"driver" yaml:"driver"`
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration  `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// ViewportSize returns the configured window size, falling back to 1280x1024.
func (b BrowserConfig) ViewportSize() (int, int) {
	w, h := b.Viewport["width"], b.Viewport["height"]
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = 1024
	}
	return w, h
}

// Index counter modes for the extraction walk.
const (
	IndexModeShared  = "shared"
	IndexModePerRoot = "per-root"
)

// ProbeConfig tunes the extraction walk.
type ProbeConfig struct {
	Annotate          bool     `mapstructure:"annotate" yaml:"annotate"`
	IndexMode         string   `mapstructure:"index_mode" yaml:"index_mode"`
	Selectors         []string `mapstructure:"selectors" yaml:"selectors"`
	SelectorCacheSize int      `mapstructure:"selector_cache_size" yaml:"selector_cache_size"`
}

// Output formats for extraction dumps.
const (
	FormatJSON     = "json"
	FormatMinified = "minified"
	FormatBoth     = "both"
)

// OutputConfig controls what gets written to disk after each extraction.
type OutputConfig struct {
	Dir                string `mapstructure:"dir" yaml:"dir"`
	Format             string `mapstructure:"format" yaml:"format"`
	Screenshot         bool   `mapstructure:"screenshot" yaml:"screenshot"`
	ScreenshotMaxWidth uint   `mapstructure:"screenshot_max_width" yaml:"screenshot_max_width"`
	ClearOverlay       bool   `mapstructure:"clear_overlay" yaml:"clear_overlay"`
	// Markdown writes the page content as markdown next to the element dumps.
	Markdown           bool   `mapstructure:"markdown" yaml:"markdown"`
	MarkdownMaxChars   int    `mapstructure:"markdown_max_chars" yaml:"markdown_max_chars"`
}

// PlanConfig paces scripted interaction runs.
type PlanConfig struct {
	StepInterval time.Duration `mapstructure:"step_interval" yaml:"step_interval"`
	SettleTime   time.Duration `mapstructure:"settle_time" yaml:"settle_time"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "scalpel-probe")
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
	v.SetDefault("logger.colors.fatal", "red")

	// -- Browser --
	v.SetDefault("browser.driver", DriverChromedp)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.viewport", map[string]int{"width": 1280, "height": 1024})
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.post_load_wait", "2s")

	// -- Probe --
	v.SetDefault("probe.annotate", false)
	v.SetDefault("probe.index_mode", IndexModeShared)
	v.SetDefault("probe.selectors", []string{"button", "a", "input", "select", "textarea", `[role="button"]`})
	v.SetDefault("probe.selector_cache_size", 512)

	// -- Output --
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.format", FormatBoth)
	v.SetDefault("output.screenshot", true)
	v.SetDefault("output.screenshot_max_width", 0)
	v.SetDefault("output.clear_overlay", true)
	v.SetDefault("output.markdown", true)
	v.SetDefault("output.markdown_max_chars", 0)

	// -- Plan --
	v.SetDefault("plan.step_interval", "1s")
	v.SetDefault("plan.settle_time", "500ms")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	v.BindEnv("browser.driver", "SCALPEL_PROBE_DRIVER")
	v.BindEnv("output.dir", "SCALPEL_PROBE_OUTPUT")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.BrowserCfg.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.ProbeCfg.Validate(); err != nil {
		return fmt.Errorf("probe configuration invalid: %w", err)
	}
	if err := c.OutputCfg.Validate(); err != nil {
		return fmt.Errorf("output configuration invalid: %w", err)
	}
	if c.PlanCfg.StepInterval < 0 {
		return fmt.Errorf("plan.step_interval must not be negative")
	}
	return nil
}

// Validate checks the browser settings.
func (b *BrowserConfig) Validate() error {
	switch strings.ToLower(b.Driver) {
	case DriverChromedp, DriverRod:
	default:
		return fmt.Errorf("driver must be one of %q or %q, got %q", DriverChromedp, DriverRod, b.Driver)
	}
	if b.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be a positive duration")
	}
	if b.PostLoadWait < 0 {
		return fmt.Errorf("post_load_wait must not be negative")
	}
	return nil
}

// Validate checks the probe settings.
func (p *ProbeConfig) Validate() error {
	switch p.IndexMode {
	case IndexModeShared, IndexModePerRoot:
	default:
		return fmt.Errorf("index_mode must be %q or %q, got %q", IndexModeShared, IndexModePerRoot, p.IndexMode)
	}
	if len(p.Selectors) == 0 {
		return fmt.Errorf("selectors must not be empty")
	}
	if p.SelectorCacheSize <= 0 {
		return fmt.Errorf("selector_cache_size must be a positive integer")
	}
	return nil
}

// Validate checks the output settings.
func (o *OutputConfig) Validate() error {
	if o.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	switch o.Format {
	case FormatJSON, FormatMinified, FormatBoth:
	default:
		return fmt.Errorf("format must be one of %q, %q or %q, got %q", FormatJSON, FormatMinified, FormatBoth, o.Format)
	}
	if o.MarkdownMaxChars < 0 {
		return fmt.Errorf("markdown_max_chars must not be negative")
	}
	return nil
}
