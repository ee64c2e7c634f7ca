// Package vault provides the credential vault collaborator.
// The pipeline treats it as an opaque get(key) -> credentials service.
package vault

import (
	"context"
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// CredentialSource fetches engine credentials referenced by an opaque key.
// A nil map with nil error means the key resolved to nothing; callers treat
// that as "credentials unavailable". No retry policy is imposed here.
type CredentialSource interface {
	// HasProvider reports whether a vault backend is configured.
	HasProvider() bool

	// GetCredentials returns the credential fields stored under key.
	GetCredentials(ctx context.Context, key string) (map[string]string, error)
}

// Config holds vault connection settings.
type Config struct {
	Address string // Vault server address; empty disables the provider
	Token   string
	Mount   string // KV v2 mount point, e.g. "secret"
}

// Client is a CredentialSource backed by HashiCorp Vault's KV v2 engine.
type Client struct {
	api    *vaultapi.Client
	mount  string
	logger *zap.Logger
}

// NewClient creates a vault-backed credential source. If cfg.Address is
// empty the client is constructed without a provider and HasProvider
// returns false.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	c := &Client{
		mount:  cfg.Mount,
		logger: logger.Named("vault"),
	}
	if cfg.Address == "" {
		return c, nil
	}

	apiCfg := vaultapi.DefaultConfig()
	apiCfg.Address = cfg.Address

	api, err := vaultapi.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	if cfg.Token != "" {
		api.SetToken(cfg.Token)
	}

	c.api = api
	return c, nil
}

// HasProvider implements CredentialSource.
func (c *Client) HasProvider() bool {
	return c.api != nil
}

// GetCredentials implements CredentialSource. Non-string secret values are
// coerced to strings before use.
func (c *Client) GetCredentials(ctx context.Context, key string) (map[string]string, error) {
	if c.api == nil {
		return nil, fmt.Errorf("no vault provider configured")
	}

	secret, err := c.api.KVv2(c.mount).Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read vault secret %q: %w", key, err)
	}
	if secret == nil || len(secret.Data) == 0 {
		c.logger.Warn("Vault key resolved to empty secret", zap.String("key", key))
		return nil, nil
	}

	creds := make(map[string]string, len(secret.Data))
	for field, value := range secret.Data {
		if s, ok := value.(string); ok {
			creds[field] = s
		} else {
			creds[field] = fmt.Sprintf("%v", value)
		}
	}
	return creds, nil
}

// Ensure Client implements CredentialSource at compile time.
var _ CredentialSource = (*Client)(nil)
