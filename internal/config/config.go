// Package config holds all autopress configuration, loaded from a YAML file
// with environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"autopress/internal/logging"
)

// Config is the root configuration.
type Config struct {
	Browser  BrowserConfig  `yaml:"browser"`
	Vision   VisionConfig   `yaml:"vision"`
	Resolver ResolverConfig `yaml:"resolver"`
	Publish  PublishConfig  `yaml:"publish"`
	Audit    AuditConfig    `yaml:"audit"`
	Logging  logging.Config `yaml:"logging"`
}

// BrowserConfig configures the rod-driven browser session shared by both
// driver variants.
type BrowserConfig struct {
	DebuggerURL         string   `yaml:"debugger_url"` // attach instead of launching
	Binary              string   `yaml:"binary"`
	LaunchFlags         []string `yaml:"launch_flags"`
	Headless            bool     `yaml:"headless"`
	ViewportWidth       int      `yaml:"viewport_width"`
	ViewportHeight      int      `yaml:"viewport_height"`
	NavigationTimeoutMs int      `yaml:"navigation_timeout_ms"`
	PollWindowMs        int      `yaml:"poll_window_ms"`   // selector candidate window
	PollIntervalMs      int      `yaml:"poll_interval_ms"` // delay between candidate passes
}

// VisionConfig configures the instruction-driven driver's reasoning backend.
type VisionConfig struct {
	Provider string `yaml:"provider"` // only "genai" today
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	MaxSteps int    `yaml:"max_steps"` // primitive actions per instruction
}

// ResolverConfig points at the externally authored artifacts.
type ResolverConfig struct {
	SelectorPath    string `yaml:"selector_path"`
	InstructionPath string `yaml:"instruction_path"`
	Watch           bool   `yaml:"watch"`
}

// PublishConfig controls the orchestrator's retry and fallback behavior.
type PublishConfig struct {
	MaxRetries    int      `yaml:"max_retries"`
	RetryDelayMs  int      `yaml:"retry_delay_ms"`
	CropSizes     []string `yaml:"crop_sizes"` // logical size names, theme-specific
	VerifyLiveURL bool     `yaml:"verify_live_url"`
	EnableVision  bool     `yaml:"enable_vision"` // configure the fallback driver
}

// AuditConfig configures the recorder's storage.
type AuditConfig struct {
	Dir         string `yaml:"dir"`          // screenshot archive root
	JournalPath string `yaml:"journal_path"` // sqlite journal, empty disables
	LogsDir     string `yaml:"logs_dir"`     // category log files
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Browser: BrowserConfig{
			Headless:            true,
			ViewportWidth:       1920,
			ViewportHeight:      1080,
			NavigationTimeoutMs: 30000,
			PollWindowMs:        10000,
			PollIntervalMs:      250,
		},
		Vision: VisionConfig{
			Provider: "genai",
			Model:    "gemini-3-flash-preview",
			MaxSteps: 12,
		},
		Resolver: ResolverConfig{
			SelectorPath:    "configs/selectors.yaml",
			InstructionPath: "configs/instructions.yaml",
		},
		Publish: PublishConfig{
			MaxRetries:   3,
			RetryDelayMs: 2000,
			CropSizes:    []string{"post_card", "hero"},
			EnableVision: true,
		},
		Audit: AuditConfig{
			Dir:         ".autopress/audit",
			JournalPath: ".autopress/audit/journal.db",
			LogsDir:     ".autopress/logs",
		},
		Logging: logging.Config{
			Level: "info",
		},
	}
}

// Load reads the config file, applies defaults for missing fields and env
// overrides on top. A missing file yields pure defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides lets secrets and CI toggles come from the environment
// instead of the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AUTOPRESS_VISION_API_KEY"); v != "" {
		cfg.Vision.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.Vision.APIKey == "" {
		cfg.Vision.APIKey = v
	}
	if v := os.Getenv("AUTOPRESS_HEADLESS"); v != "" {
		cfg.Browser.Headless = v != "0" && v != "false"
	}
	if v := os.Getenv("AUTOPRESS_DEBUG"); v != "" {
		cfg.Logging.DebugMode = v != "0" && v != "false"
	}
}

// NavigationTimeout returns the navigation timeout.
func (c BrowserConfig) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// PollWindow returns the bounded window for selector candidate polling.
func (c BrowserConfig) PollWindow() time.Duration {
	if c.PollWindowMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.PollWindowMs) * time.Millisecond
}

// PollInterval returns the delay between candidate passes.
func (c BrowserConfig) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// RetryDelay returns the sleep between phase retries.
func (c PublishConfig) RetryDelay() time.Duration {
	if c.RetryDelayMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// Save writes the config back out, creating parent directories.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
