package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"go.uber.org/zap"
)

// AWSSourceConfig contains configuration for the AWS Secrets Manager source
type AWSSourceConfig struct {
	// AWS region (e.g. "us-east-1")
	Region string

	// Optional AWS profile for local development
	Profile string

	// Cache TTL for fetched secrets
	CacheTTL time.Duration
}

// DefaultAWSSourceConfig returns default configuration
func DefaultAWSSourceConfig(region string) *AWSSourceConfig {
	return &AWSSourceConfig{
		Region:   region,
		CacheTTL: 5 * time.Minute,
	}
}

// awsSource implements ports.SecretSource over AWS Secrets Manager with a
// small in-memory TTL cache so the master key is not refetched per request
type awsSource struct {
	client *secretsmanager.Client
	config *AWSSourceConfig
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// NewAWSSource creates an AWS Secrets Manager secret source
func NewAWSSource(ctx context.Context, cfg *AWSSourceConfig, logger *zap.Logger) (*awsSource, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	logger.Info("aws secrets manager source initialized", zap.String("region", cfg.Region))

	return &awsSource{
		client: secretsmanager.NewFromConfig(awsCfg),
		config: cfg,
		logger: logger,
		cache:  make(map[string]cachedSecret),
	}, nil
}

// GetSecret retrieves a secret by name/ARN
func (s *awsSource) GetSecret(ctx context.Context, path string) (string, error) {
	s.mu.RLock()
	if entry, ok := s.cache[path]; ok && time.Now().Before(entry.expiresAt) {
		s.mu.RUnlock()
		return entry.value, nil
	}
	s.mu.RUnlock()

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(path),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("secret not found: %s", path)
		}
		return "", fmt.Errorf("get secret %s: %w", path, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", path)
	}

	s.mu.Lock()
	s.cache[path] = cachedSecret{
		value:     *out.SecretString,
		expiresAt: time.Now().Add(s.config.CacheTTL),
	}
	s.mu.Unlock()

	return *out.SecretString, nil
}
