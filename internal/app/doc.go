// Package app wires the flow graph service together: configuration, logging,
// telemetry, the record set snapshot, the chi router and the HTTP server
// lifecycle.
//
// Construction order matters. The logger comes first so every later failure
// is reported consistently, then telemetry, then the flow service. The
// initial load happens inside Run, after the server dependencies exist but
// before the listener accepts traffic, so a process that reaches "server
// started" always has a usable snapshot or has logged why not.
package app
