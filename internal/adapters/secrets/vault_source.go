package secrets

import (
	"context"
	"fmt"
	"strings"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// VaultSourceConfig contains configuration for the HashiCorp Vault source
type VaultSourceConfig struct {
	// Vault server address (e.g. "https://vault.example.com:8200")
	Address string

	// Token authentication
	Token string

	// KV v2 mount path (default "secret")
	MountPath string
}

// DefaultVaultSourceConfig returns default configuration
func DefaultVaultSourceConfig(address, token string) *VaultSourceConfig {
	return &VaultSourceConfig{
		Address:   address,
		Token:     token,
		MountPath: "secret",
	}
}

// vaultSource implements ports.SecretSource over Vault's KV v2 engine
type vaultSource struct {
	client *vault.Client
	config *VaultSourceConfig
	logger *zap.Logger
}

// NewVaultSource creates a Vault secret source
func NewVaultSource(cfg *VaultSourceConfig, logger *zap.Logger) (*vaultSource, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	logger.Info("vault secret source initialized", zap.String("address", cfg.Address))

	return &vaultSource{client: client, config: cfg, logger: logger}, nil
}

// GetSecret retrieves a secret. The path may carry a "#field" suffix to
// select a key inside the KV entry; default field is "value".
func (s *vaultSource) GetSecret(ctx context.Context, path string) (string, error) {
	field := "value"
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path, field = path[:i], path[i+1:]
	}

	secret, err := s.client.KVv2(s.config.MountPath).Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("read vault secret %s: %w", path, err)
	}

	raw, ok := secret.Data[field]
	if !ok {
		return "", fmt.Errorf("vault secret %s has no field %q", path, field)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault secret %s field %q is not a string", path, field)
	}
	return value, nil
}
