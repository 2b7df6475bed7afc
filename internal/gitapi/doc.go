// Package gitapi provides the REST transport shared by provisioning and
// organization checks.
//
// Client issues GitHub-compatible API requests with token authentication,
// paces them through an optional rate limiter, and returns the raw status and
// body so callers can branch on status codes themselves. Transport failures
// surface as TransportError so they stay distinguishable from remote
// rejections.
package gitapi
