// Package ui formats human-readable result lines printed by gitprovision commands.
package ui
