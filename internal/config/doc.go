// Package config provides configuration structures and utilities for vpnsentry.
// It defines the geolocation endpoint, probe timeouts, the watch interval,
// report output preferences and the optional rule list extensions read from
// the .vpnsentry file.
package config
