package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for settings the viewer cannot use.
var ErrInvalid = errors.New("invalid config")

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the search locations
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
		cfg.path = configPath
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Graphics.Width, c.Graphics.Height)
	}
	if s := c.Render.AtlasSize; s < 64 || s > 4096 || s&(s-1) != 0 {
		return fmt.Errorf("%w: atlas_size %d must be a power of two in [64, 4096]", ErrInvalid, s)
	}
	if c.Render.AtlasDump != "" {
		switch strings.ToLower(filepath.Ext(c.Render.AtlasDump)) {
		case ".png", ".bmp":
		default:
			return fmt.Errorf("%w: atlas_dump %q must end in .png or .bmp", ErrInvalid, c.Render.AtlasDump)
		}
	}
	switch strings.ToLower(c.Render.ScreenshotFormat) {
	case "png", "bmp":
	default:
		return fmt.Errorf("%w: screenshot_format %q must be png or bmp", ErrInvalid, c.Render.ScreenshotFormat)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("%w: camera fov %g", ErrInvalid, c.Camera.FOV)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./bspview.yaml",
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "BSPView")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "BSPView")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "bspview")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "bspview")
	}
}

// loadFromFile merges a YAML file into cfg. Keys absent from the file keep
// their current values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}
	return nil
}
