// Package descriptor defines the BlockDescriptor, the immutable normalized
// record a compilation pass builds for every block instance in a diagram, and
// the single generic factory that constructs it.
//
// A descriptor is produced by Construct from a Kind (the per-kind schema:
// direction, port bounds, bus protocol, parameter declarations) and the Args
// collected from one diagram node. Construct enforces the direction/port
// arity invariant and validates every parameter against the kind's schema,
// failing with SchemaError or ParameterError. Once returned, a descriptor
// cannot be modified: all fields are unexported and accessors return copies.
package descriptor
