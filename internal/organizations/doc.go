// Package organizations verifies that git organizations exist on a provider and that
// the acting git user is a member of them.
package organizations
