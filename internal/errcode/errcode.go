// Package errcode defines stable identifiers for every failure a compilation
// pass can report. Typed errors across the compiler expose a Code so callers
// (the CLI, the publisher, tests) can classify a failure without matching on
// message text.
package errcode

import "errors"

// Code is a stable, caller-facing error identifier.
// It is a string newtype, comparable, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes.
const (
	OK Code = "ok"

	Schema                 Code = "schema"
	Parameter              Code = "parameter"
	UnconnectedPort        Code = "unconnected_port"
	PortArityMismatch      Code = "port_arity_mismatch"
	FanInConflict          Code = "fan_in_conflict"
	DuplicateDeviceBinding Code = "duplicate_device_binding"
	CyclicDependency       Code = "cyclic_dependency"

	// Load covers unreadable or malformed manifest and diagram files.
	Load Code = "load"

	Error Code = "error" // generic fallback
)

// coder is implemented by every typed error in the compiler.
type coder interface{ Code() Code }

// Of extracts a Code from an error chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}
