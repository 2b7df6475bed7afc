// Package credentials resolves personal access tokens for git users.
//
// Tokens are referenced through token sources (env:NAME, file:/path, or a
// bare environment variable name) so the registry never stores secrets. When
// a git user has no source configured, well-known provider environment
// variables are consulted instead. Resolver combines those lookups with the
// registry to produce a Session for the acting user.
package credentials
