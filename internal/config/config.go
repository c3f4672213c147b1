// Package config reads the JSON configuration used by the geotree tools.
// Lookup order: programmatic overrides, the config file, then environment
// variables; a fallback value covers everything else.
package config

import (
	"os"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Well-known keys.
const (
	DatasetPath     = "dataset_path"
	KeyKind         = "key_kind" // "point" or "box"
	MaxNodeElements = "max_node_elements"
	DatasetSize     = "dataset_size"
	Extent          = "extent"
	MaxBoxSize      = "max_box_size"
	QueryCount      = "query_count"
	NearestCount    = "nearest_count"
	Seed            = "seed"
	OutputDir       = "output_dir"
)

// Config holds the raw JSON document plus any overrides set at runtime.
type Config struct {
	path      string
	json      string
	overrides map[string]string
}

// Load reads the config file at path. A missing file is not an error; the
// config then resolves only overrides and environment variables.
func Load(path string) (*Config, error) {
	c := &Config{path: path, overrides: map[string]string{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		c.json = string(data)
	}
	return c, nil
}

// Set records a runtime override, taking precedence over file and env.
func (c *Config) Set(key, value string) {
	c.overrides[key] = value
}

func (c *Config) lookup(key string) (string, bool) {
	if v, ok := c.overrides[key]; ok {
		return v, true
	}
	if v := gjson.Get(c.json, key); v.Exists() {
		return v.String(), true
	}
	if v, ok := os.LookupEnv("GEOTREE_" + key); ok {
		return v, true
	}
	return "", false
}

// String returns the value for key, or fallback when unset.
func (c *Config) String(key, fallback string) string {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return fallback
}

// Int returns the integer value for key, or fallback when unset or
// unparsable.
func (c *Config) Int(key string, fallback int) int {
	if v, ok := c.lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// Float returns the float value for key, or fallback when unset or
// unparsable.
func (c *Config) Float(key string, fallback float64) float64 {
	if v, ok := c.lookup(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Write persists the file values merged with the overrides back to the
// config path, pretty-printed.
func (c *Config) Write() error {
	doc := c.json
	if doc == "" {
		doc = "{}"
	}
	var err error
	for k, v := range c.overrides {
		if n, nerr := strconv.Atoi(v); nerr == nil {
			doc, err = sjson.Set(doc, k, n)
		} else if f, ferr := strconv.ParseFloat(v, 64); ferr == nil {
			doc, err = sjson.Set(doc, k, f)
		} else {
			doc, err = sjson.Set(doc, k, v)
		}
		if err != nil {
			return err
		}
	}
	return os.WriteFile(c.path, pretty.Pretty([]byte(doc)), 0666)
}
