// Package config reads the configuration file of the contactscan binary.
package config

import (
	"bytes"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/contactscan/detection"
	"go.viam.com/contactscan/logging"
	"go.viam.com/contactscan/utils"
)

// Config is the top level configuration of a scan.
type Config struct {
	// Scene is the scene file to scan. Relative paths are resolved against the config file.
	Scene string `json:"scene"`
	// Output is where the event file is written. Empty means stdout.
	Output    string           `json:"output"`
	LogLevel  string           `json:"log_level"`
	Detection detection.Config `json:"detection"`
}

// Read reads a JSON or TOML config file, chosen by extension. Environment variables such as
// ${SCENE_DIR} are expanded first. Detection knobs that are not set keep their defaults.
func Read(path string) (*Config, error) {
	data, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := utils.ReadAttributes(bytes.NewReader(data), utils.Ext(path))
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}
	cfg, err := FromAttributes(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}
	dir := filepath.Dir(path)
	cfg.Scene = resolve(dir, cfg.Scene)
	cfg.Output = resolve(dir, cfg.Output)
	return cfg, nil
}

// FromAttributes decodes an attribute map into a Config.
func FromAttributes(raw map[string]interface{}) (*Config, error) {
	cfg := Config{Detection: detection.DefaultConfig()}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &cfg,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "error decoding config")
	}
	return &cfg, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if expanded, err := utils.ExpandHomeDir(path); err == nil && expanded != path {
		return expanded
	}
	return filepath.Join(dir, path)
}

// Level returns the configured log level, INFO when unset.
func (cfg *Config) Level() (logging.Level, error) {
	if cfg.LogLevel == "" {
		return logging.INFO, nil
	}
	return logging.LevelFromString(cfg.LogLevel)
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	var errs error
	if cfg.Scene == "" {
		errs = multierr.Append(errs, errors.New("scene is required"))
	}
	if _, err := cfg.Level(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "log_level"))
	}
	if err := cfg.Detection.Validate("detection"); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}
