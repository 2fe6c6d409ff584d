package signalgraph

import (
	"fmt"

	"github.com/specialistvlad/rcpgrid/internal/errcode"
	"github.com/specialistvlad/rcpgrid/internal/portref"
)

// PortArityMismatch reports a wire endpoint that names a port the block does
// not have: an index past the declared count, the wrong side, or a block
// that does not exist (Declared is 0 then).
type PortArityMismatch struct {
	Ref      portref.Ref
	Declared int
	Reason   string
}

func (e *PortArityMismatch) Error() string {
	return fmt.Sprintf("port %s: %s (block declares %d)", e.Ref, e.Reason, e.Declared)
}

// Code implements the errcode coder contract.
func (e *PortArityMismatch) Code() errcode.Code { return errcode.PortArityMismatch }

// FanInConflictError reports an input port bound by a second wire.
type FanInConflictError struct {
	Input    portref.Ref
	Bound    portref.Ref
	Incoming portref.Ref
}

func (e *FanInConflictError) Error() string {
	return fmt.Sprintf("input %s is already driven by %s, cannot also bind %s", e.Input, e.Bound, e.Incoming)
}

// Code implements the errcode coder contract.
func (e *FanInConflictError) Code() errcode.Code { return errcode.FanInConflict }

// UnconnectedPortError reports an input of a sink or inline block that no
// wire drives.
type UnconnectedPortError struct {
	Block string
	Kind  string
	Port  int
}

func (e *UnconnectedPortError) Error() string {
	return fmt.Sprintf("block %q (kind %q): input port %d is not connected", e.Block, e.Kind, e.Port)
}

// Code implements the errcode coder contract.
func (e *UnconnectedPortError) Code() errcode.Code { return errcode.UnconnectedPort }
