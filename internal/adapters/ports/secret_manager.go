package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., gateway API key)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter defines the port for retrieving secrets from a secret
// management service. The payin service reads its database URLs and the
// gateway API key through this port at bootstrap.
// Supports multiple backends: AWS Secrets Manager, HashiCorp Vault, env vars.
// Implementation is responsible for:
//   - Authentication with the secret manager service
//   - Caching secrets appropriately (with TTL)
//   - Handling secret rotation gracefully
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name
	// Path format depends on implementation:
	//   - AWS: "payin-service/{env}/stripe_api_key"
	//   - Vault: "secret/data/payin-service/{env}"
	//   - Env: "STRIPE_API_KEY"
	// Returns error if the secret does not exist, permissions are
	// insufficient, or the backend is unreachable.
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// GetSecretVersion retrieves a specific version of a secret.
	// Useful during rotation to keep the previous gateway key valid while
	// in-flight requests drain.
	GetSecretVersion(ctx context.Context, path string, version string) (*Secret, error)
}
