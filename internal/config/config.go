// Package config handles viewer configuration loading and management.
package config

import "path/filepath"

// Config holds all viewer settings.
type Config struct {
	Game     GameConfig     `yaml:"game"`
	Graphics GraphicsConfig `yaml:"graphics"`
	Render   RenderConfig   `yaml:"render"`
	Camera   CameraConfig   `yaml:"camera"`
	Logging  LoggingConfig  `yaml:"logging"`

	path string // File the config was loaded from
}

// GameConfig locates the game installation searched for WAD archives.
type GameConfig struct {
	Path       string   `yaml:"path"`        // Game installation root
	SearchDirs []string `yaml:"search_dirs"` // Subdirectories searched in order
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// RenderConfig holds map rendering settings.
type RenderConfig struct {
	AtlasSize        int        `yaml:"atlas_size"`
	AtlasDump        string     `yaml:"atlas_dump"` // "" disables the atlas image
	ClearColor       [3]float32 `yaml:"clear_color"`
	ScreenshotFormat string     `yaml:"screenshot_format"` // "png" or "bmp"
}

// CameraConfig holds orbit camera settings.
type CameraConfig struct {
	FOV       float32 `yaml:"fov"`
	MoveSpeed float32 `yaml:"move_speed"` // Map units per second
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Game: GameConfig{
			Path:       ".",
			SearchDirs: []string{"svencoop", "svencoop_addon", "svencoop_downloads", "svencoop_hd"},
		},
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Render: RenderConfig{
			AtlasSize:        512,
			AtlasDump:        "atlas.png",
			ClearColor:       [3]float32{0.1, 0.1, 0.12},
			ScreenshotFormat: "png",
		},
		Camera: CameraConfig{
			FOV:       60,
			MoveSpeed: 500,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Path returns the file the config was loaded from, or the default location
// in the user's config directory.
func (c *Config) Path() string {
	if c.path != "" {
		return c.path
	}
	return filepath.Join(ConfigDir(), "config.yaml")
}
