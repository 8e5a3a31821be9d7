// Package inventory reads the fleet inventory: the list of monitored servers
// with their service URL, port and whether they are active in production.
package inventory
