// Package registry loads the read-only record store that backs gitprovision:
// git providers and their API base URLs, git users with their PAT expiry,
// token source and organizations, and previously linked repositories.
//
// The store is a YAML document decoded with yaml.v3 and validated with
// go-playground/validator before any lookup is served.
package registry
