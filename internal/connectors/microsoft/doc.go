// Package microsoft provides shared plumbing for Microsoft 365 service clients.
//
// This package provides:
//   - Microsoft identity platform endpoints for token acquisition
//   - Rate limiting for SharePoint Online and Microsoft Graph requests
//   - Error mapping for HTTP status codes returned by both services
//   - An authenticated HTTP client that stamps every request with a client-request-id
//
// Service specific clients live in sub-packages:
//   - sharepoint: CSOM ProcessQuery requests, request digests, long-running operation polling
//   - graph: directory setting templates and settings
//
// # Request Digests
//
// Mutating SharePoint requests need an X-RequestDigest header obtained from
// <site>/_api/contextinfo. Digests expire after FormDigestTimeoutSeconds and are
// cached until five seconds before that.
//
// # Rate Limits
//
// Both services throttle with 429 and a Retry-After header. Requests wait on a
// token bucket and honour the last Retry-After before being sent. Throttled
// requests are reported, never retried automatically.
package microsoft
