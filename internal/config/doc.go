// Package config defines correlator settings used by the binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the HTTP listen address, the incident store DSN
// and the buffering/correlation tunables (sliding window, buffer size
// threshold, temporal window, emergency entity types).
package config
