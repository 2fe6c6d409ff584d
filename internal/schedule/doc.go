// Package schedule merges the signal graph ordering and the bus transaction
// ordering of a diagram into one execution sequence.
//
// A producer always runs before the consumers bound to its outputs, except
// when the consumer does not feed its input through in the same period (a
// unit delay); that is the only way to close a feedback loop. Among blocks
// that are ready at the same time the lowest timing priority runs first,
// then the one declared first. Transactions on one bus that are ready
// together form a single atomic bus step. A reader of a device waits for the
// writer of the same device and shares its step, unless the reader feeds
// that writer.
package schedule
