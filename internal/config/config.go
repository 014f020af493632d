// Package config holds the conversion settings. Values are layered:
// defaults, then an optional YAML file, then DICOM2YOLO_* environment
// variables, then command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the conversion configuration.
type Config struct {
	Workers      int    `yaml:"workers"`
	MaxSize      int    `yaml:"max_size"`
	ImageDirName string `yaml:"image_dir"`
	LabelDirName string `yaml:"label_dir"`
	Verbose      bool   `yaml:"verbose"`
	LogFile      string `yaml:"log_file"`
	ReportPath   string `yaml:"report"`
	ManifestPath string `yaml:"manifest"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Workers:      runtime.NumCPU(),
		ImageDirName: "png",
		LabelDirName: "yolo",
	}
}

// Load builds a configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DICOM2YOLO_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DICOM2YOLO_WORKERS %q: %w", v, err)
		}
		c.Workers = n
	}
	if v := os.Getenv("DICOM2YOLO_MAX_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DICOM2YOLO_MAX_SIZE %q: %w", v, err)
		}
		c.MaxSize = n
	}
	if v := os.Getenv("DICOM2YOLO_IMAGE_DIR"); v != "" {
		c.ImageDirName = v
	}
	if v := os.Getenv("DICOM2YOLO_LABEL_DIR"); v != "" {
		c.LabelDirName = v
	}
	if v := os.Getenv("DICOM2YOLO_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	return nil
}

// Validate checks the configuration for values the pipeline cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("max_size must not be negative, got %d", c.MaxSize))
	}
	if c.ImageDirName == "" || c.LabelDirName == "" {
		errs = append(errs, errors.New("image_dir and label_dir must be set"))
	}
	if c.ImageDirName == c.LabelDirName {
		errs = append(errs, fmt.Errorf("image_dir and label_dir must differ, both are %q", c.ImageDirName))
	}
	return errors.Join(errs...)
}
