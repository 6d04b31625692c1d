package ports

import "context"

// FeatureFlags is an injected flag provider. Components resolve flags once
// per operation through this interface instead of reading ambient globals.
type FeatureFlags interface {
	// Enabled returns the flag value, or the given default when the flag
	// is unknown to the provider.
	Enabled(ctx context.Context, flag string, defaultValue bool) bool
}

// Flag names understood by the payin core.
const (
	// FlagLegacyShadowWrites controls whether intents for legacy payers
	// also write main-DB consumer/stripe charge shadow rows.
	FlagLegacyShadowWrites = "payin_legacy_shadow_writes"
)
