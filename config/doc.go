// Package config loads the monitor configuration from a YAML file, the
// environment and command-line overrides. It covers logging, the inventory
// location, the sweep worker count, SSH access, probe tuning and the report
// sinks.
package config
