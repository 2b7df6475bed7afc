// Package orgs builds the org-verify and org-membership commands.
package orgs
