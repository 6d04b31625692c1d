package main

import (
	"context"
	"strings"

	"go.uber.org/zap"

	adapterports "github.com/kevin07696/payin-service/internal/adapters/ports"
	"github.com/kevin07696/payin-service/internal/adapters/secrets"
	"github.com/kevin07696/payin-service/internal/config"
)

// initSecretManager initializes the appropriate secret manager backend
// Supports:
//   - AWS Secrets Manager (production): SECRET_MANAGER=aws and AWS_REGION
//   - HashiCorp Vault: SECRET_MANAGER=vault, VAULT_ADDR and VAULT_TOKEN
//   - Environment variables (development/testing): default
func initSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) adapterports.SecretManagerAdapter {
	switch cfg.Secrets.Backend {
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.Secrets.AWSRegion)
		awsCfg.Endpoint = cfg.Secrets.AWSEndpoint
		sm, err := secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize AWS Secrets Manager",
				zap.Error(err),
				zap.String("region", cfg.Secrets.AWSRegion),
			)
		}
		logger.Info("AWS Secrets Manager initialized",
			zap.String("region", cfg.Secrets.AWSRegion),
		)
		return sm

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress)
		vaultCfg.Token = cfg.Secrets.VaultToken
		sm, err := secrets.NewVaultAdapter(ctx, vaultCfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Vault adapter",
				zap.Error(err),
				zap.String("address", cfg.Secrets.VaultAddress),
			)
		}
		logger.Info("Vault secret manager initialized",
			zap.String("address", cfg.Secrets.VaultAddress),
		)
		return sm

	case "env":
		return secrets.NewEnvSecretManager("PAYIN", logger)

	default:
		logger.Warn("Unknown SECRET_MANAGER backend, falling back to env",
			zap.String("secret_manager", cfg.Secrets.Backend),
		)
		return secrets.NewEnvSecretManager("PAYIN", logger)
	}
}

// resolveSecret resolves a config value that may be a secret reference.
// Values of the form "secret://name" are fetched through the secret
// manager; anything else is returned as-is.
func resolveSecret(ctx context.Context, sm adapterports.SecretManagerAdapter, value string, logger *zap.Logger) string {
	name, ok := strings.CutPrefix(value, "secret://")
	if !ok {
		return value
	}
	secret, err := sm.GetSecret(ctx, name)
	if err != nil {
		logger.Fatal("Failed to resolve secret reference",
			zap.Error(err),
			zap.String("secret", name),
		)
	}
	return secret.Value
}
