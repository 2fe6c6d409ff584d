// Package busregistry tracks which devices each shared bus carries during one
// compilation pass.
//
// Every bus-bound descriptor is a transaction on its bus: a source reads
// from the addressed device, a sink writes to it. A (bus, device, direction)
// triple may be claimed once, so a device has at most one writer and one
// reader per period. Finalize returns the transactions in the order the
// emitter must issue them: grouped by bus, by ascending device ID, writers
// before readers of the same device.
package busregistry
