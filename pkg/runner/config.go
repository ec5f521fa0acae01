package runner

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/entrhq/pagecheck/pkg/browser"
	"gopkg.in/yaml.v3"
)

// Config holds the environment a scenario runs against. Scenario content
// (routes, labels, artifact names) lives in the scenario itself.
type Config struct {
	// Origin of the target application
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Directory screenshots are written to; relative to the working directory
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Browser settings
	Headless    bool             `yaml:"headless" json:"headless"`
	SkipInstall bool             `yaml:"skip_install" json:"skip_install"`
	Viewport    browser.Viewport `yaml:"viewport" json:"viewport"`

	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts"`
	Logging  LoggingConfig `yaml:"logging" json:"logging"`
}

// TimeoutConfig bounds every wait the runner performs.
type TimeoutConfig struct {
	Default        time.Duration `yaml:"default" json:"default"`                 // page default for any Playwright call
	Navigation     time.Duration `yaml:"navigation" json:"navigation"`           // page loads and landing redirects
	Element        time.Duration `yaml:"element" json:"element"`                 // ready checkpoints and controls
	Modal          time.Duration `yaml:"modal" json:"modal"`                     // dialogs appearing and disappearing
	ProviderSettle time.Duration `yaml:"provider_settle" json:"provider_settle"` // bound on polling after a provider sign-in
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls console output: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`

	// Dir holds the per-run debug log; empty means ~/.pagecheck/logs
	Dir string `yaml:"dir" json:"dir"`
}

// DefaultConfig returns the configuration for a local development server.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   DefaultBaseURL,
		OutputDir: DefaultOutputDir,
		Headless:  true,
		Viewport: browser.Viewport{
			Width:  browser.DefaultViewportWidth,
			Height: browser.DefaultViewportHeight,
		},
		Timeouts: TimeoutConfig{
			Default:        browser.DefaultTimeout,
			Navigation:     30 * time.Second,
			Element:        5 * time.Second,
			Modal:          5 * time.Second,
			ProviderSettle: 2 * time.Second,
			PollInterval:   100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base_url %q: must be an absolute http(s) address", c.BaseURL)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if c.Viewport.Width < 0 || c.Viewport.Height < 0 {
		return fmt.Errorf("viewport dimensions cannot be negative")
	}

	timeouts := map[string]time.Duration{
		"default":         c.Timeouts.Default,
		"navigation":      c.Timeouts.Navigation,
		"element":         c.Timeouts.Element,
		"modal":           c.Timeouts.Modal,
		"provider_settle": c.Timeouts.ProviderSettle,
		"poll_interval":   c.Timeouts.PollInterval,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("timeouts.%s must be positive", name)
		}
	}
	if c.Timeouts.PollInterval > c.Timeouts.ProviderSettle {
		return fmt.Errorf("timeouts.poll_interval (%s) cannot exceed timeouts.provider_settle (%s)",
			c.Timeouts.PollInterval, c.Timeouts.ProviderSettle)
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}
	if _, err := ParseVerbosity(c.Logging.Verbosity); err != nil {
		return err
	}

	return nil
}

// URL joins a route onto the base address.
func (c *Config) URL(path string) string {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return c.BaseURL + path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return c.BaseURL + path
	}
	return base.ResolveReference(ref).String()
}

// SessionOptions derives browser session options from the configuration.
func (c *Config) SessionOptions(name string) browser.SessionOptions {
	viewport := c.Viewport
	opts := browser.SessionOptions{
		Name:        name,
		Headless:    c.Headless,
		Timeout:     c.Timeouts.Default,
		SkipInstall: c.SkipInstall,
	}
	if viewport.Width > 0 && viewport.Height > 0 {
		opts.Viewport = &viewport
	}
	return opts
}

// LoadConfig reads a YAML file over the defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}
