// Package server wires the correlation pipeline together and runs the
// alarm-correlator process: configuration, incident store selection,
// event bus subscriptions, the tenant registry and the HTTP server with
// graceful drain on shutdown.
package server
