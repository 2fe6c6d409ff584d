// Package signalgraph binds block ports into a signal graph.
//
// Resolve takes the descriptors of one diagram and its wires and checks that
// every wire names existing ports on the right side, that no input is driven
// twice, and that every input of a sink or inline block is driven at all.
// The result records producer to consumer edges at port granularity and, at
// block granularity, in a topology store used for scheduling.
package signalgraph
