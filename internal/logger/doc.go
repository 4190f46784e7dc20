// Package logger wraps zap with a global sugared logger, context helpers
// (ToContext/FromContext/WithName/WithKV/WithFields) and leveled
// convenience functions (Infof, ErrorKV, ...).
//
// Components accept a context and log through the logger attached to it,
// so scoped names like "window-flush" or "drain" follow the work they
// describe.
package logger
