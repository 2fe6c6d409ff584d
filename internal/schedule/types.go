package schedule

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/rcpgrid/internal/busregistry"
	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/errcode"
)

// StepKind tells a plain block step from a grouped bus step.
type StepKind int

const (
	BlockStep StepKind = iota
	BusStep
)

func (k StepKind) String() string {
	if k == BusStep {
		return "bus"
	}
	return "block"
}

// Entry is one descriptor executed within a step. Transaction is set for
// entries of a bus step.
type Entry struct {
	Descriptor  *descriptor.Descriptor
	Transaction *busregistry.Transaction
}

// Step is one atomic unit of the execution sequence.
type Step struct {
	Index   int
	Kind    StepKind
	Bus     string
	Entries []Entry
}

// IDs returns the block IDs of the step's entries in execution order.
func (s Step) IDs() []string {
	ids := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		ids = append(ids, e.Descriptor.ID())
	}
	return ids
}

// CyclicDependencyError reports a loop of feedthrough blocks. Cycle lists
// the block IDs along the loop and repeats the first one at the end.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency without a delay block: %s", strings.Join(e.Cycle, " -> "))
}

// Code implements the errcode coder contract.
func (e *CyclicDependencyError) Code() errcode.Code { return errcode.CyclicDependency }
