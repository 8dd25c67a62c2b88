// Package config handles import settings loading and management.
package config

import (
	"runtime"
	"time"

	"github.com/Faultbox/assetimport/pkg/importer"
	"github.com/Faultbox/assetimport/pkg/resource"
)

// Config holds all import settings.
type Config struct {
	Import     ImportConfig              `yaml:"import"`
	Materials  map[string]MaterialConfig `yaml:"materials"`
	References map[string]string         `yaml:"references"`
	Logging    LoggingConfig             `yaml:"logging"`
}

// ImportConfig holds source, output and worker settings.
type ImportConfig struct {
	SourceDir     string        `yaml:"source_dir"`
	Output        string        `yaml:"output"`
	TexturePrefix string        `yaml:"texture_prefix"`
	Target        string        `yaml:"-"` // flag only
	Workers       int           `yaml:"workers"`
	KeepGoing     bool          `yaml:"keep_going"`
	Extensions    []string      `yaml:"extensions"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// MaterialConfig binds texture paths to a material reference. Paths are
// relative to the texture prefix.
type MaterialConfig struct {
	Diffuse  string `yaml:"diffuse"`
	Normal   string `yaml:"normal,omitempty"`
	Specular string `yaml:"specular,omitempty"`
	Alpha    string `yaml:"alpha,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`    // debug, info, warn, error
	LogFile string `yaml:"log_file"` // empty = console only
}

// Default returns configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			SourceDir:     ".",
			Output:        "assets.pak",
			TexturePrefix: "textures",
			Workers:       runtime.NumCPU(),
			Extensions:    []string{".dae", ".xcd"},
			WatchDebounce: 250 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// MaterialMap returns the configured materials as importer bindings.
func (c *Config) MaterialMap() importer.MaterialMap {
	if len(c.Materials) == 0 {
		return nil
	}
	m := make(importer.MaterialMap, len(c.Materials))
	for ref, mc := range c.Materials {
		m[ref] = resource.Material{
			Name:            ref,
			DiffuseTexture:  mc.Diffuse,
			NormalTexture:   mc.Normal,
			SpecularTexture: mc.Specular,
			AlphaTexture:    mc.Alpha,
		}
	}
	return m
}
