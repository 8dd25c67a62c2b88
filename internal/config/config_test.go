package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test import defaults
	if cfg.Import.SourceDir != "." {
		t.Errorf("expected source dir '.', got %s", cfg.Import.SourceDir)
	}
	if cfg.Import.Output != "assets.pak" {
		t.Errorf("expected output assets.pak, got %s", cfg.Import.Output)
	}
	if cfg.Import.TexturePrefix != "textures" {
		t.Errorf("expected texture prefix 'textures', got %s", cfg.Import.TexturePrefix)
	}
	if cfg.Import.Workers != runtime.NumCPU() {
		t.Errorf("expected %d workers, got %d", runtime.NumCPU(), cfg.Import.Workers)
	}
	if cfg.Import.KeepGoing {
		t.Error("expected keep_going to be false by default")
	}
	if len(cfg.Import.Extensions) != 2 {
		t.Errorf("expected 2 extensions, got %v", cfg.Import.Extensions)
	}
	if cfg.Import.WatchDebounce != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", cfg.Import.WatchDebounce)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if cfg.MaterialMap() != nil {
		t.Error("expected no material bindings by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
import:
  source_dir: "art"
  output: "build/level.pak"
  texture_prefix: "tex"
  workers: 3
  keep_going: true
  extensions: [".dae"]
  watch_debounce: 1s

materials:
  stone:
    diffuse: "stone.png"
    normal: "stone_n.png"

references:
  "props/rock.obj": "rock"

logging:
  level: "debug"
  log_file: "import.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Import.SourceDir != "art" {
		t.Errorf("expected source dir 'art', got %s", cfg.Import.SourceDir)
	}
	if cfg.Import.Output != "build/level.pak" {
		t.Errorf("expected output build/level.pak, got %s", cfg.Import.Output)
	}
	if cfg.Import.TexturePrefix != "tex" {
		t.Errorf("expected texture prefix 'tex', got %s", cfg.Import.TexturePrefix)
	}
	if cfg.Import.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Import.Workers)
	}
	if !cfg.Import.KeepGoing {
		t.Error("expected keep_going to be true")
	}
	if len(cfg.Import.Extensions) != 1 || cfg.Import.Extensions[0] != ".dae" {
		t.Errorf("expected extensions [.dae], got %v", cfg.Import.Extensions)
	}
	if cfg.Import.WatchDebounce != time.Second {
		t.Errorf("expected debounce 1s, got %v", cfg.Import.WatchDebounce)
	}

	if cfg.References["props/rock.obj"] != "rock" {
		t.Errorf("expected reference override, got %v", cfg.References)
	}

	m := cfg.MaterialMap()
	stone, ok := m.Lookup("stone")
	if !ok {
		t.Fatal("expected material 'stone'")
	}
	if stone.Name != "stone" || stone.DiffuseTexture != "stone.png" || stone.NormalTexture != "stone_n.png" {
		t.Errorf("unexpected material: %+v", stone)
	}
	if stone.SpecularTexture != "" || stone.AlphaTexture != "" {
		t.Errorf("expected unset specular and alpha, got %+v", stone)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "import.log" {
		t.Errorf("expected log file 'import.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
import:
  workers: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/"+FileName)
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Keep the user config dir out of the lookup
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create the config file in current directory
	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("import:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
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
			name: "output flags",
			setup: func() {
				*flagSource = "src"
				*flagOut = "out.pak"
				*flagTextures = "maps"
			},
			verify: func(cfg *Config) {
				if cfg.Import.SourceDir != "src" {
					t.Errorf("expected source dir 'src', got %s", cfg.Import.SourceDir)
				}
				if cfg.Import.Output != "out.pak" {
					t.Errorf("expected output out.pak, got %s", cfg.Import.Output)
				}
				if cfg.Import.TexturePrefix != "maps" {
					t.Errorf("expected texture prefix 'maps', got %s", cfg.Import.TexturePrefix)
				}
			},
			teardown: func() {
				*flagSource = ""
				*flagOut = ""
				*flagTextures = ""
			},
		},
		{
			name: "target flag",
			setup: func() {
				*flagTarget = "crate-mesh"
			},
			verify: func(cfg *Config) {
				if cfg.Import.Target != "crate-mesh" {
					t.Errorf("expected target crate-mesh, got %s", cfg.Import.Target)
				}
			},
			teardown: func() {
				*flagTarget = ""
			},
		},
		{
			name: "batch flags",
			setup: func() {
				*flagWorkers = 7
				*flagKeepGoing = true
			},
			verify: func(cfg *Config) {
				if cfg.Import.Workers != 7 {
					t.Errorf("expected 7 workers, got %d", cfg.Import.Workers)
				}
				if !cfg.Import.KeepGoing {
					t.Error("expected keep_going with keep-going flag")
				}
			},
			teardown: func() {
				*flagWorkers = 0
				*flagKeepGoing = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			tt.setup()
			defer tt.teardown()

			// Apply flags to default config
			cfg := Default()
			applyFlags(cfg)

			// Verify
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
import:
  workers: 2
  texture_prefix: "tex"
  output: "~/level.pak"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagWorkers = 8
	defer func() {
		*flagConfig = ""
		*flagWorkers = 0
	}()

	// Load config
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers should be from flag (8), not file (2)
	if cfg.Import.Workers != 8 {
		t.Errorf("expected 8 workers from flag, got %d", cfg.Import.Workers)
	}

	// Prefix should be from file since no flag override
	if cfg.Import.TexturePrefix != "tex" {
		t.Errorf("expected texture prefix 'tex' from file, got %s", cfg.Import.TexturePrefix)
	}

	// Home-relative paths are expanded
	home, err := homedir.Dir()
	if err != nil {
		t.Fatalf("home dir: %v", err)
	}
	if want := filepath.Join(home, "level.pak"); cfg.Import.Output != want {
		t.Errorf("expected output %s, got %s", want, cfg.Import.Output)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Import.Workers = 5
	cfg.Materials = map[string]MaterialConfig{"wood": {Diffuse: "wood.png"}}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Import.Workers != 5 {
		t.Errorf("expected 5 workers, got %d", loaded.Import.Workers)
	}
	if loaded.Materials["wood"].Diffuse != "wood.png" {
		t.Errorf("expected material wood, got %v", loaded.Materials)
	}
}
