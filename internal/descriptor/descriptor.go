package descriptor

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Timing is the two-integer timing hint carried by every block. Priority
// breaks ties between blocks without a data dependency (lower runs first);
// Rate is passed through to the code emitter untouched.
type Timing struct {
	Rate     int
	Priority int
}

// Port is one input or output slot of a block.
type Port struct {
	Index int
}

// Param is one named, validated parameter value.
type Param struct {
	Name  string
	Value cty.Value
}

// BusHandle references a shared communication channel that addressed
// devices are attached to.
type BusHandle struct {
	Name        string
	Protocol    string
	MaxDeviceID int
}

func (b BusHandle) String() string {
	return fmt.Sprintf("%s(%s)", b.Name, b.Protocol)
}

// Descriptor is the immutable normalized record of one block instance.
type Descriptor struct {
	id        string
	name      string
	inputs    []Port
	outputs   []Port
	timing    Timing
	direction Direction

	staticParams []Param
	deviceParams []Param

	bus         *BusHandle
	deviceID    int
	hasDeviceID bool
	feedthrough bool
}

// ID returns the diagram instance label.
func (d *Descriptor) ID() string { return d.id }

// Name returns the block-kind identifier.
func (d *Descriptor) Name() string { return d.name }

// Inputs returns a copy of the input port slots.
func (d *Descriptor) Inputs() []Port { return append([]Port(nil), d.inputs...) }

// Outputs returns a copy of the output port slots.
func (d *Descriptor) Outputs() []Port { return append([]Port(nil), d.outputs...) }

func (d *Descriptor) NumInputs() int  { return len(d.inputs) }
func (d *Descriptor) NumOutputs() int { return len(d.outputs) }

func (d *Descriptor) Timing() Timing       { return d.timing }
func (d *Descriptor) Direction() Direction { return d.direction }

// Feedthrough reports whether the block's outputs depend on the current
// value of its inputs.
func (d *Descriptor) Feedthrough() bool { return d.feedthrough }

// StaticParams returns a copy of the compile-time parameters in kind
// declaration order.
func (d *Descriptor) StaticParams() []Param { return append([]Param(nil), d.staticParams...) }

// DeviceParams returns a copy of the bus-transaction parameters in kind
// declaration order.
func (d *Descriptor) DeviceParams() []Param { return append([]Param(nil), d.deviceParams...) }

// Param looks a parameter up by name across both classes.
func (d *Descriptor) Param(name string) (cty.Value, bool) {
	for _, p := range d.staticParams {
		if p.Name == name {
			return p.Value, true
		}
	}
	for _, p := range d.deviceParams {
		if p.Name == name {
			return p.Value, true
		}
	}
	return cty.NilVal, false
}

// Bus returns the bus handle the block is bound to, if any.
func (d *Descriptor) Bus() (BusHandle, bool) {
	if d.bus == nil {
		return BusHandle{}, false
	}
	return *d.bus, true
}

// DeviceID returns the device address on the bound bus.
func (d *Descriptor) DeviceID() (int, bool) { return d.deviceID, d.hasDeviceID }

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%s)", d.id, d.name)
}
