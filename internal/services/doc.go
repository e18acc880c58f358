// Package services contains the application service layer.
//
// FlowService owns the process-wide record set snapshot and runs the
// per-request filter/aggregate/build pipeline against it. The snapshot is an
// immutable value behind an atomic pointer: requests read it lock-free, and
// an explicit reload installs a fresh snapshot without disturbing in-flight
// requests.
package services
