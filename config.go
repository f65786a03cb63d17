package qbytes

import "github.com/samber/lo"

// Config holds the settings of the bytes filter for one scope. Scopes nest: a mux is the outer scope, the routes
// and mounts registered on it are inner scopes. An unset value inherits from the enclosing scope.
type Config struct {
	// Enabled switches the bytes filter on or off. Off when unset in every scope.
	Enabled *bool `yaml:"bytes,omitempty"`
}

// Enabled returns a Config that switches the bytes filter on or off.
func Enabled(on bool) Config {
	return Config{Enabled: lo.ToPtr(on)}
}

// Merge fills the values c leaves unset from the enclosing scope.
func (c Config) Merge(parent Config) Config {
	if c.Enabled == nil {
		c.Enabled = parent.Enabled
	}

	return c
}

// IsEnabled reports whether the bytes filter is on.
func (c Config) IsEnabled() bool {
	return lo.FromPtrOr(c.Enabled, false)
}
