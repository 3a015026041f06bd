// Package config loads the server configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/blukraken/texview/internal/storage"
)

// Config is the serve command's settings.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// ImageDir is where the filesystem backend stores PNGs.
	ImageDir string `yaml:"image_dir"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`
	// ThumbSize is the bounding box for generated thumbnails.
	ThumbSize int `yaml:"thumb_size"`

	Storage StorageConfig `yaml:"storage"`
}

// StorageConfig selects and configures the blob backend.
type StorageConfig struct {
	// Backend is "fs" or "minio".
	Backend string              `yaml:"backend"`
	Minio   storage.MinioConfig `yaml:"minio"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:    ":8080",
		ImageDir:  "./data/images",
		DBPath:    "./data/images.db",
		ThumbSize: 256,
		Storage:   StorageConfig{Backend: "fs"},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Storage.Backend != "fs" && cfg.Storage.Backend != "minio" {
		return cfg, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if cfg.ThumbSize <= 0 {
		cfg.ThumbSize = 256
	}
	return cfg, nil
}
