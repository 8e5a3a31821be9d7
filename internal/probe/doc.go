// Package probe implements the individual health probes: ICMP reachability,
// TCP port reachability, the HTTP response check and the service process
// check. Every probe reports a plain pass/fail boolean; errors are logged at
// the probe boundary and never returned to the caller.
package probe
