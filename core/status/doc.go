// Package status serves the daemon's health and last sync summary over
// HTTP. Disabled unless a port is configured; intended for the
// continuous update mode where the process runs unattended.
package status
