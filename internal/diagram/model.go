package diagram

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/portref"
	"github.com/zclconf/go-cty/cty"
)

// DefaultCANMaxDeviceID is the highest node ID on a CAN bus using 7-bit
// addressing. It applies when a `can` bus does not set max_device_id.
const DefaultCANMaxDeviceID = 127

// Diagram is the format-agnostic content of one or more diagram files.
type Diagram struct {
	Buses  []*Bus
	Blocks []*Block
	Wires  []*Wire
	Files  []string
}

// Bus declares a shared communication channel.
type Bus struct {
	Name        string
	Protocol    string
	MaxDeviceID int
	DeclRange   hcl.Range
}

// Handle converts the declaration into the value carried by descriptors.
func (b *Bus) Handle() *descriptor.BusHandle {
	return &descriptor.BusHandle{Name: b.Name, Protocol: b.Protocol, MaxDeviceID: b.MaxDeviceID}
}

// Block is one block instance. Nil pointer fields fall back to the kind's
// defaults.
type Block struct {
	ID        string
	Kind      string
	Inputs    *int
	Outputs   *int
	Direction *descriptor.Direction
	Timing    *descriptor.Timing
	Bus       string
	Params    map[string]cty.Value
	DeclRange hcl.Range
}

// Wire connects one output to one or more inputs.
type Wire struct {
	From      portref.Ref
	To        []portref.Ref
	DeclRange hcl.Range
}

// Bus looks a bus declaration up by name.
func (d *Diagram) Bus(name string) (*Bus, bool) {
	for _, b := range d.Buses {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}
