// Package diagram reads block diagrams written in HCL.
//
// A diagram is made of three kinds of top-level blocks:
//
//	bus "can0" {
//	  protocol      = "can"
//	  max_device_id = 127
//	}
//
//	block "tq" "FH_5XXX_getTQ" {
//	  bus    = "can0"
//	  timing = [0, 2]
//	  params = { id = 5 }
//	}
//
//	wire {
//	  from = "tq.out[0]"
//	  to   = ["log.in[0]"]
//	}
//
// Port references may also be written unquoted (from = tq.out[0]), and a
// wire with a single destination may drop the list brackets.
//
// The loader only checks what can be checked without the kind table:
// syntax, label uniqueness, reference syntax and literal shapes. Kind-aware
// validation happens when the compiler constructs descriptors.
package diagram
