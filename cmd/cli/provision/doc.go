// Package provision builds the repo-provision and repo-provision-batch commands.
package provision
