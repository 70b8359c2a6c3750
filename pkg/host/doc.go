// Package host implements the collaborators the reconciliation engine drives:
// the external command runner, the account database, credential files and the
// sudoer file. Host bundles them behind the engine's Observer and HostOps
// interfaces.
package host
