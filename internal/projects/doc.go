// Package projects validates linking an existing organization repository to a project.
package projects
