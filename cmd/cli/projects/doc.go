// Package projects builds the project-link-validate command.
package projects
