// Package http implements the HTTP transport for the correlator: the
// alarm ingestion endpoint fed by the upstream normalizer, plus health
// and metrics exposure. It validates the canonical alarm shape and
// hands records to the buffering layer.
package http
