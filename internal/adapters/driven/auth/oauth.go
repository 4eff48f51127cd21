package auth

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure the OAuth providers implement the interface.
var (
	_ driven.TokenProvider = (*ClientCredentialsProvider)(nil)
	_ driven.TokenProvider = (*RefreshTokenProvider)(nil)
)

// sourceCache holds one reusable token source per resource.
// Token sources keep a background context so a cancelled command context
// does not poison cached sources.
type sourceCache struct {
	ctx     context.Context
	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

func newSourceCache(httpClient *http.Client) *sourceCache {
	ctx := context.Background()
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	return &sourceCache{ctx: ctx, sources: make(map[string]oauth2.TokenSource)}
}

func (c *sourceCache) token(ctx context.Context, resource string, build func(context.Context) oauth2.TokenSource) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	ts, ok := c.sources[resource]
	if !ok {
		ts = oauth2.ReuseTokenSource(nil, build(c.ctx))
		c.sources[resource] = ts
	}
	c.mu.Unlock()

	tok, err := ts.Token()
	if err != nil {
		return "", &domain.AuthError{Resource: resource, Err: err}
	}
	return tok.AccessToken, nil
}

// ClientCredentialsProvider acquires app-only tokens with a client secret.
type ClientCredentialsProvider struct {
	tokenURL     string
	clientID     string
	clientSecret string
	cache        *sourceCache
}

// NewClientCredentialsProvider creates a provider that posts to tokenURL.
func NewClientCredentialsProvider(tokenURL, clientID, clientSecret string, httpClient *http.Client) *ClientCredentialsProvider {
	return &ClientCredentialsProvider{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		cache:        newSourceCache(httpClient),
	}
}

// GetToken returns a cached or new token for resource.
func (p *ClientCredentialsProvider) GetToken(ctx context.Context, resource string) (string, error) {
	return p.cache.token(ctx, resource, func(ctx context.Context) oauth2.TokenSource {
		logger.Debug("auth: requesting client credentials token for %s", resource)
		cfg := &clientcredentials.Config{
			ClientID:     p.clientID,
			ClientSecret: p.clientSecret,
			TokenURL:     p.tokenURL,
			Scopes:       []string{microsoft.ScopeFor(resource)},
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		return cfg.TokenSource(ctx)
	})
}

// RefreshTokenProvider redeems a refresh token for access tokens to any
// resource the user consented to. Rotated refresh tokens replace the
// configured one for the lifetime of the process.
type RefreshTokenProvider struct {
	tokenURL     string
	clientID     string
	clientSecret string
	cache        *sourceCache

	mu           sync.Mutex
	refreshToken string
}

// NewRefreshTokenProvider creates a provider that posts to tokenURL.
// clientSecret may be empty for public clients.
func NewRefreshTokenProvider(tokenURL, clientID, clientSecret, refreshToken string, httpClient *http.Client) *RefreshTokenProvider {
	return &RefreshTokenProvider{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		cache:        newSourceCache(httpClient),
	}
}

// GetToken returns a cached or new token for resource.
func (p *RefreshTokenProvider) GetToken(ctx context.Context, resource string) (string, error) {
	return p.cache.token(ctx, resource, func(ctx context.Context) oauth2.TokenSource {
		return &refreshSource{ctx: ctx, provider: p, resource: resource}
	})
}

// RefreshToken returns the most recent refresh token.
func (p *RefreshTokenProvider) RefreshToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshToken
}

func (p *RefreshTokenProvider) rotate(token string) {
	if token == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshToken = token
}

// refreshSource redeems the provider's refresh token for one resource.
type refreshSource struct {
	ctx      context.Context
	provider *RefreshTokenProvider
	resource string
}

func (s *refreshSource) Token() (*oauth2.Token, error) {
	logger.Debug("auth: redeeming refresh token for %s", s.resource)

	// The identity platform selects the audience from scope, which the
	// standard refresh flow of oauth2.Config does not send.
	cfg := &clientcredentials.Config{
		ClientID:     s.provider.clientID,
		ClientSecret: s.provider.clientSecret,
		TokenURL:     s.provider.tokenURL,
		Scopes:       microsoft.RefreshScopes(s.resource),
		AuthStyle:    oauth2.AuthStyleInParams,
		EndpointParams: url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {s.provider.RefreshToken()},
		},
	}

	tok, err := cfg.Token(s.ctx)
	if err != nil {
		return nil, err
	}
	s.provider.rotate(tok.RefreshToken)
	return tok, nil
}
