package upstream

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AssertionSigner produces a signed client_assertion JWT for the workload
// identity federation flow used when no client secret is configured.
type AssertionSigner interface {
	SignAssertion(ctx context.Context, tokenURL, clientID string) (string, error)
}

// Credential describes how to obtain access tokens for one tenant: either
// the standard OAuth2 client-credentials grant (client secret present), or
// a client-assertion exchange backed by AssertionSigner (secret absent).
type Credential struct {
	TenantID string
	ClientID string

	// ClientSecret, when non-empty, selects the client-credentials grant.
	ClientSecret string

	// Signer is required when ClientSecret is empty.
	Signer AssertionSigner

	TokenURL string
	Scopes   []string
}

func (c Credential) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if c.ClientSecret != "" {
		cfg := &clientcredentials.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     c.TokenURL,
			Scopes:       c.Scopes,
		}
		return cfg.TokenSource(ctx), nil
	}

	if c.Signer == nil {
		return nil, fmt.Errorf("tenant %s has no client secret and no assertion signer configured", c.TenantID)
	}

	return &federatedTokenSource{
		ctx:      ctx,
		clientID: c.ClientID,
		tokenURL: c.TokenURL,
		scopes:   c.Scopes,
		signer:   c.Signer,
	}, nil
}

// CredentialCache owns one token source per tenant, amortizing connection
// and token-exchange setup across runs (spec §9, "process-wide cached
// instances for credential clients"). It is constructed with an explicit
// factory rather than any implicit global registry.
type CredentialCache struct {
	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
	factory func(tenantID string) (Credential, error)
}

func NewCredentialCache(factory func(tenantID string) (Credential, error)) *CredentialCache {
	return &CredentialCache{
		sources: make(map[string]oauth2.TokenSource),
		factory: factory,
	}
}

func (c *CredentialCache) TokenSource(ctx context.Context, tenantID string) (oauth2.TokenSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ts, ok := c.sources[tenantID]; ok {
		return ts, nil
	}

	cred, err := c.factory(tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve credential for tenant %s: %w", tenantID, err)
	}

	ts, err := cred.tokenSource(ctx)
	if err != nil {
		return nil, err
	}

	c.sources[tenantID] = ts
	return ts, nil
}
