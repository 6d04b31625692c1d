package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/payin-service/internal/adapters/ports"
)

// envSecretManager implements SecretManagerAdapter using environment
// variables. Paths are uppercased and slashes become underscores, so
// "payin-service/dev/stripe_api_key" reads PAYIN_SERVICE_DEV_STRIPE_API_KEY.
// WARNING: This is for development only. Use AWS Secrets Manager or Vault in production.
type envSecretManager struct {
	prefix string
	logger *zap.Logger
}

// NewEnvSecretManager creates a new environment-variable secret manager
func NewEnvSecretManager(prefix string, logger *zap.Logger) ports.SecretManagerAdapter {
	return &envSecretManager{
		prefix: prefix,
		logger: logger,
	}
}

// GetSecret retrieves a secret from the environment
func (m *envSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	key := m.envKey(path)

	m.logger.Debug("Reading secret from environment",
		zap.String("path", path),
		zap.String("env_key", key),
	)

	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	return &ports.Secret{
		Value:   value,
		Version: "v1",
	}, nil
}

// GetSecretVersion retrieves a specific version of a secret. Environment
// variables are unversioned, so any requested version resolves to the
// current value.
func (m *envSecretManager) GetSecretVersion(ctx context.Context, path string, version string) (*ports.Secret, error) {
	return m.GetSecret(ctx, path)
}

func (m *envSecretManager) envKey(path string) string {
	key := path
	if m.prefix != "" {
		key = m.prefix + "_" + key
	}
	key = strings.ReplaceAll(key, "/", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return strings.ToUpper(key)
}
