// Package errors defines the fatal error taxonomy of a monitoring run and the
// process exit codes each kind of failure maps to. Per-probe failures never
// become errors of this package; they are downgraded to failed probe results.
package errors
