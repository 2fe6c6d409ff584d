/*
Package portref parses the endpoint references used by diagram wires.

A reference names one port slot of one block: `block.out[0]` is the first
output of `block`, `block.in[2]` its third input. The index may be omitted,
in which case it is 0, so `gain1.out` and `gain1.out[0]` are the same slot.
*/
package portref
