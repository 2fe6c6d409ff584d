// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface. A diagram compiled for an embedded
// target has at most a few hundred blocks, so the whole topology lives in
// maps guarded by a single RWMutex.
package inmemorytopology
