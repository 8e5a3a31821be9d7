// Package fleet holds the data model of a health sweep: the monitored host
// targets, the per-phase and per-host verdicts, and the synchronized mapping
// that collects one verdict per active host.
package fleet
