// Package dependencies resolves the collaborators shared by gitprovision commands,
// returning injected instances when present and production defaults otherwise.
package dependencies
