// Package healthcheck runs the two-phase health check for fleet targets and
// sweeps an inventory with a bounded worker pool.
//
// The Initial phase pings the host and scans its ports. The Extended phase
// checks the service process over SSH and then its HTTP endpoint. A phase
// stops at its first failing probe, and the Extended phase only runs when the
// Initial phase passed. Probe failures never abort a sweep; they surface as
// INVESTIGATION_NEEDED for the affected host.
package healthcheck
