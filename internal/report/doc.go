// Package report publishes the verdicts of a finished sweep.
//
// A Sink receives the whole Report once the sweep is done. PublishAll always
// runs the log summary first so verdicts reach the log even when a later
// sink such as email or the JSON file fails.
package report
