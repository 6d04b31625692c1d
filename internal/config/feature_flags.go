package config

import (
	"context"

	"github.com/kevin07696/payin-service/internal/domain/ports"
)

// StaticFeatureFlags is a config-backed flag provider. Flags are resolved
// from the loaded configuration; unknown flags fall back to the caller's
// default.
type StaticFeatureFlags struct {
	flags map[string]bool
}

// NewStaticFeatureFlags creates a provider over the given flag map
func NewStaticFeatureFlags(flags map[string]bool) *StaticFeatureFlags {
	if flags == nil {
		flags = make(map[string]bool)
	}
	return &StaticFeatureFlags{flags: flags}
}

// Enabled implements ports.FeatureFlags
func (f *StaticFeatureFlags) Enabled(_ context.Context, flag string, defaultValue bool) bool {
	if v, ok := f.flags[flag]; ok {
		return v
	}
	return defaultValue
}

var _ ports.FeatureFlags = (*StaticFeatureFlags)(nil)
