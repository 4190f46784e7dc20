// Package version exposes build metadata for the correlator binaries.
//
// Version, Commit, and BuildTime are injected through Go ldflags and fall
// back to sensible values for local builds. AttachCobraVersionCommand wires
// the standard `version` subcommand onto a cobra root.
package version
