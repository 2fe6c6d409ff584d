package descriptor

import (
	"fmt"

	"github.com/specialistvlad/rcpgrid/internal/errcode"
)

// SchemaError reports a descriptor whose shape contradicts its block kind:
// unknown kind, invalid direction, port arity outside the declared bounds,
// or a bus binding the kind does not allow.
type SchemaError struct {
	Block  string
	Kind   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("block %q (kind %q): %s", e.Block, e.Kind, e.Reason)
}

// Code implements the errcode coder contract.
func (e *SchemaError) Code() errcode.Code { return errcode.Schema }

// ParameterError reports a static or device parameter that fails the kind's
// declared schema (type, integer-ness, range, presence).
type ParameterError struct {
	Block  string
	Kind   string
	Param  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("block %q (kind %q), parameter %q: %s", e.Block, e.Kind, e.Param, e.Reason)
}

// Code implements the errcode coder contract.
func (e *ParameterError) Code() errcode.Code { return errcode.Parameter }
