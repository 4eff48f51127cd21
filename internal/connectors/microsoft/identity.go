package microsoft

import (
	"strings"

	"golang.org/x/oauth2"
)

// Microsoft identity platform constants.
const (
	defaultAuthorityHost = "https://login.microsoftonline.com"
	defaultTenant        = "common"
)

// Endpoint returns the OAuth2 v2.0 endpoints for tenant.
// An empty tenant uses "common" for multi-tenant sign-in.
func Endpoint(authorityHost, tenant string) oauth2.Endpoint {
	if authorityHost == "" {
		authorityHost = defaultAuthorityHost
	}
	if tenant == "" {
		tenant = defaultTenant
	}
	base := strings.TrimRight(authorityHost, "/") + "/" + tenant + "/oauth2/v2.0"
	return oauth2.Endpoint{
		AuthURL:   base + "/authorize",
		TokenURL:  base + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// ScopeFor returns the ".default" scope for resource, which requests all
// permissions consented to the app for that audience.
func ScopeFor(resource string) string {
	return strings.TrimRight(resource, "/") + "/.default"
}

// RefreshScopes returns the scopes requested when redeeming a refresh token.
// offline_access keeps a refresh token in the response.
func RefreshScopes(resource string) []string {
	return []string{ScopeFor(resource), "offline_access"}
}
