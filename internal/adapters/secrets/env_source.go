package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// envSource implements ports.SecretSource from environment variables.
// Development only; production deployments use AWS Secrets Manager or Vault.
type envSource struct {
	prefix string
	logger *zap.Logger
}

// NewEnvSource creates an environment-variable secret source. A path like
// "checkout/master-key" resolves to the variable PREFIX_CHECKOUT_MASTER_KEY.
func NewEnvSource(prefix string, logger *zap.Logger) *envSource {
	return &envSource{prefix: prefix, logger: logger}
}

// GetSecret retrieves a secret from the environment
func (s *envSource) GetSecret(ctx context.Context, path string) (string, error) {
	name := strings.NewReplacer("/", "_", "-", "_").Replace(path)
	if s.prefix != "" {
		name = s.prefix + "_" + name
	}
	name = strings.ToUpper(name)

	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("secret not found in environment: %s", name)
	}

	s.logger.Debug("resolved secret from environment", zap.String("var", name))
	return value, nil
}
