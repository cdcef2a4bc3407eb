// Package config loads the flat key/value property files that drive a
// stream-team worker: a global file shared by every worker plus an
// optional per-worker override file, merged worker-wins.
package config

import (
	"strconv"
	"strings"

	"github.com/magiconair/properties"

	"soccerstream/pkg/streamteam"
)

// Config is a merged, read-only property bag.
type Config struct {
	props *properties.Properties
}

// Load reads globalPath and, if workerPath is non-empty, layers workerPath
// on top of it (worker keys win, via properties.LoadFiles' later-file-wins
// merge). Parsing errors are fatal at startup, per the worker's
// configuration-error contract: they are never deferred to
// element-processing time.
func Load(globalPath, workerPath string) (*Config, error) {
	files := []string{globalPath}
	if workerPath != "" {
		files = append(files, workerPath)
	}

	props, err := properties.LoadFiles(files, properties.UTF8, false)
	if err != nil {
		return nil, streamteam.NewConfigError("config.Load", strings.Join(files, ","), err)
	}
	return &Config{props: props}, nil
}

// GetString returns the raw value for key, or def if the key is absent.
func (c *Config) GetString(key, def string) string {
	return c.props.GetString(key, def)
}

// GetInt returns key parsed as an int, or a ConfigError if it is present
// but unparsable.
func (c *Config) GetInt(key string, def int) (int, error) {
	raw, ok := c.props.Get(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, streamteam.NewConfigError("config.GetInt", key, err)
	}
	return v, nil
}

// GetInt64 returns key parsed as an int64, or a ConfigError if it is
// present but unparsable.
func (c *Config) GetInt64(key string, def int64) (int64, error) {
	raw, ok := c.props.Get(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, streamteam.NewConfigError("config.GetInt64", key, err)
	}
	return v, nil
}

// GetFloat64 returns key parsed as a float64, or a ConfigError if it is
// present but unparsable.
func (c *Config) GetFloat64(key string, def float64) (float64, error) {
	raw, ok := c.props.Get(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, streamteam.NewConfigError("config.GetFloat64", key, err)
	}
	return v, nil
}

// GetFloat64List parses a comma-separated list of floats, used for
// configuration such as speedLevelThresholds.
func (c *Config) GetFloat64List(key string, def []float64) ([]float64, error) {
	raw, ok := c.props.Get(key)
	if !ok {
		return def, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, streamteam.NewConfigError("config.GetFloat64List", key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
