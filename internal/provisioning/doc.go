// Package provisioning decides whether a remote repository should be adopted
// or created and performs that decision against a GitHub-compatible API.
//
// Provisioner validates the requested identity and credential before any
// network call, checks whether the repository already exists, and only
// creates it when the existence check did not find it. At most two requests
// are issued per invocation and none is retried. BatchProvisioner runs many
// independent invocations through a bounded pool.
package provisioning
