// Package remote provides the remote execution channel used by the service
// probe: short-lived, key-authenticated SSH sessions that run one command and
// are closed unconditionally afterwards. Sessions are never reused across
// operations.
package remote
