package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// PackageJSONKey is the package.json field holding the configuration
const PackageJSONKey = "publicPath"

// configFileNames are tried in order under .config/ when package.json has no
// configuration
var configFileNames = []string{"publicpath.yaml", "publicpath.yml", "publicpath.json"}

// LoadFile reads a configuration file over the defaults. Files ending in
// .json are read as JSONC; anything else is YAML.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: config path comes from the user
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = decodeJSON(jsonc.ToJSON(data), &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ReadPackageJSON reads the publicPath field of rootPath/package.json over
// the defaults. Returns nil if the file or the field doesn't exist.
func ReadPackageJSON(rootPath string) (*Config, error) {
	packageJSONPath := filepath.Join(rootPath, "package.json")

	data, err := os.ReadFile(packageJSONPath) //nolint:gosec // G304: reading the project's own package.json
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkgJSON map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkgJSON); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	raw, ok := pkgJSON[PackageJSONKey]
	if !ok {
		return nil, nil
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%s in package.json must be an object", PackageJSONKey)
	}

	cfg := DefaultConfig()
	if err := decodeJSON(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s in package.json: %w", PackageJSONKey, err)
	}
	return &cfg, nil
}

// Load finds the configuration for a project: the publicPath field of
// package.json, else .config/publicpath.{yaml,yml,json}. Returns nil if
// neither exists.
func Load(rootPath string) (*Config, error) {
	if rootPath == "" {
		return nil, nil
	}

	cfg, err := ReadPackageJSON(rootPath)
	if err != nil || cfg != nil {
		return cfg, err
	}

	for _, name := range configFileNames {
		path := filepath.Join(rootPath, ".config", name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		return &loaded, nil
	}
	return nil, nil
}

// decodeJSON rejects unknown fields so a typo doesn't silently fall back to a
// default
func decodeJSON(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}
