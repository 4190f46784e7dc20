// Package sender implements the alarm-sender operator tool: it reads
// canonical alarm JSON from a file or stdin and posts it to a running
// correlator, for smoke tests and backfills.
package sender
