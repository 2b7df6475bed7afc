// Package gitrepo parses repository URLs into host, owner, and repository
// components so callers can reason about which organization a linked
// repository belongs to.
package gitrepo
