package config

import (
	"maps"
	"slices"
)

// DatabaseConfig holds the raw per-backend settings, each backend decodes its own section
type DatabaseConfig struct {
	SQL map[string]map[string]any `mapstructure:"sql,omitempty"`
}

// EnabledSQL returns the name and settings of the first enabled SQL backend, by name
func (d *DatabaseConfig) EnabledSQL() (string, map[string]any, bool) {
	if d == nil {
		return "", nil, false
	}
	for _, name := range slices.Sorted(maps.Keys(d.SQL)) {
		settings := d.SQL[name]
		if enabled, ok := settings["enabled"].(bool); ok && enabled {
			return name, settings, true
		}
	}
	return "", nil, false
}
