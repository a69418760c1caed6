package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Graphics defaults
	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	// Game defaults
	if cfg.Game.Path != "." {
		t.Errorf("expected game path '.', got %s", cfg.Game.Path)
	}
	wantDirs := []string{"svencoop", "svencoop_addon", "svencoop_downloads", "svencoop_hd"}
	if len(cfg.Game.SearchDirs) != len(wantDirs) {
		t.Fatalf("expected %d search dirs, got %v", len(wantDirs), cfg.Game.SearchDirs)
	}
	for i, dir := range wantDirs {
		if cfg.Game.SearchDirs[i] != dir {
			t.Errorf("search dir %d = %s, want %s", i, cfg.Game.SearchDirs[i], dir)
		}
	}

	// Render defaults
	if cfg.Render.AtlasSize != 512 {
		t.Errorf("expected atlas size 512, got %d", cfg.Render.AtlasSize)
	}
	if cfg.Render.AtlasDump != "atlas.png" {
		t.Errorf("expected atlas dump 'atlas.png', got %s", cfg.Render.AtlasDump)
	}
	if cfg.Render.ScreenshotFormat != "png" {
		t.Errorf("expected screenshot format 'png', got %s", cfg.Render.ScreenshotFormat)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
game:
  path: "/games/svencoop"
  search_dirs: ["valve", "svencoop"]

graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

render:
  atlas_size: 1024
  atlas_dump: "out/atlas.bmp"
  clear_color: [0.5, 0.25, 0]

camera:
  fov: 90
  move_speed: 250

logging:
  level: "debug"
  log_file: "bspview.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Game.Path != "/games/svencoop" {
		t.Errorf("expected game path /games/svencoop, got %s", cfg.Game.Path)
	}
	if len(cfg.Game.SearchDirs) != 2 || cfg.Game.SearchDirs[0] != "valve" {
		t.Errorf("unexpected search dirs %v", cfg.Game.SearchDirs)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 1080 {
		t.Errorf("expected height 1080, got %d", cfg.Graphics.Height)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.VSync {
		t.Error("expected vsync to be false")
	}

	if cfg.Render.AtlasSize != 1024 {
		t.Errorf("expected atlas size 1024, got %d", cfg.Render.AtlasSize)
	}
	if cfg.Render.AtlasDump != "out/atlas.bmp" {
		t.Errorf("expected atlas dump out/atlas.bmp, got %s", cfg.Render.AtlasDump)
	}
	if cfg.Render.ClearColor != [3]float32{0.5, 0.25, 0} {
		t.Errorf("unexpected clear color %v", cfg.Render.ClearColor)
	}

	if cfg.Camera.FOV != 90 || cfg.Camera.MoveSpeed != 250 {
		t.Errorf("unexpected camera config %+v", cfg.Camera)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "bspview.log" {
		t.Errorf("expected log file 'bspview.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("render:\n  atlas_dump: \"\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Render.AtlasDump != "" {
		t.Errorf("expected atlas dump to be disabled, got %s", cfg.Render.AtlasDump)
	}
	if cfg.Render.AtlasSize != 512 {
		t.Errorf("unset keys should keep defaults, got atlas size %d", cfg.Render.AtlasSize)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	// Isolate from a real user config
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Game.Path = "/opt/svencoop"
	cfg.Render.AtlasSize = 256
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if loaded.Game.Path != "/opt/svencoop" || loaded.Render.AtlasSize != 256 {
		t.Errorf("saved values not restored: %+v", loaded)
	}
}

func TestSaveWritesBackToLoadedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "viewer.yaml")
	if err := os.WriteFile(configPath, []byte("camera:\n  fov: 75\n"), 0644); err != nil {
		t.Fatal(err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Path() != configPath {
		t.Errorf("Path() = %s, want %s", cfg.Path(), configPath)
	}

	cfg.Camera.FOV = 95
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := Default()
	if err := loadFromFile(reloaded, configPath); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if reloaded.Camera.FOV != 95 {
		t.Errorf("expected saved fov 95, got %g", reloaded.Camera.FOV)
	}
}

func TestPathDefaultsToConfigDir(t *testing.T) {
	want := filepath.Join(ConfigDir(), "config.yaml")
	if got := Default().Path(); got != want {
		t.Errorf("Path() = %s, want %s", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bmp dump", func(c *Config) { c.Render.AtlasDump = "out/ATLAS.BMP" }, false},
		{"dump disabled", func(c *Config) { c.Render.AtlasDump = "" }, false},
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }, true},
		{"atlas not power of two", func(c *Config) { c.Render.AtlasSize = 500 }, true},
		{"atlas too small", func(c *Config) { c.Render.AtlasSize = 32 }, true},
		{"atlas too large", func(c *Config) { c.Render.AtlasSize = 8192 }, true},
		{"unknown dump format", func(c *Config) { c.Render.AtlasDump = "atlas.tga" }, true},
		{"flat fov", func(c *Config) { c.Camera.FOV = 180 }, true},
		{"bmp screenshots", func(c *Config) { c.Render.ScreenshotFormat = "BMP" }, false},
		{"unknown screenshot format", func(c *Config) { c.Render.ScreenshotFormat = "jpg" }, true},
		{"empty screenshot format", func(c *Config) { c.Render.ScreenshotFormat = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("expected ErrInvalid, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("render:\n  atlas_size: 100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "game flag",
			setup: func() {
				*flagGame = "/games/svencoop"
			},
			verify: func(cfg *Config) {
				if cfg.Game.Path != "/games/svencoop" {
					t.Errorf("expected game path /games/svencoop, got %s", cfg.Game.Path)
				}
			},
			teardown: func() {
				*flagGame = ""
			},
		},
		{
			name: "windowed flag",
			setup: func() {
				*flagWindowed = true
			},
			verify: func(cfg *Config) {
				if cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() {
				*flagWindowed = false
			},
		},
		{
			name: "fullscreen flag",
			setup: func() {
				*flagFullscreen = true
			},
			verify: func(cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() {
				*flagFullscreen = false
			},
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(cfg *Config) {
				if cfg.Graphics.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Graphics.Width)
				}
				if cfg.Graphics.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name: "atlas dump flag",
			setup: func() {
				*flagAtlasDump = "dump/atlas.bmp"
			},
			verify: func(cfg *Config) {
				if cfg.Render.AtlasDump != "dump/atlas.bmp" {
					t.Errorf("expected atlas dump dump/atlas.bmp, got %s", cfg.Render.AtlasDump)
				}
			},
			teardown: func() {
				*flagAtlasDump = ""
			},
		},
		{
			name: "screenshot format flag",
			setup: func() {
				*flagShotFormat = "bmp"
			},
			verify: func(cfg *Config) {
				if cfg.Render.ScreenshotFormat != "bmp" {
					t.Errorf("expected screenshot format bmp, got %s", cfg.Render.ScreenshotFormat)
				}
			},
			teardown: func() {
				*flagShotFormat = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
game:
  path: "/from/file"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width from the flag, the rest from the file
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
	if cfg.Game.Path != "/from/file" {
		t.Errorf("expected game path from file, got %s", cfg.Game.Path)
	}
}
