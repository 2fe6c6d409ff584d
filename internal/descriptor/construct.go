package descriptor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Args is everything one diagram node contributes to its descriptor.
type Args struct {
	// ID is the diagram instance label.
	ID string
	// Name is the block-kind identifier.
	Name string

	Inputs  int
	Outputs int

	Timing    Timing
	Direction Direction

	// Params holds raw parameter values keyed by name; Construct splits them
	// into static and device classes following the kind's declaration.
	Params map[string]cty.Value

	// Bus is optional.
	Bus *BusHandle
}

// Construct builds a descriptor of the given kind, validating the arguments
// against the kind's schema. It has no side effects besides allocation.
func Construct(kind *Kind, args Args) (*Descriptor, error) {
	schemaErr := func(format string, a ...any) error {
		return &SchemaError{Block: args.ID, Kind: args.Name, Reason: fmt.Sprintf(format, a...)}
	}

	if args.Name == "" {
		return nil, schemaErr("block kind must not be empty")
	}
	if kind == nil {
		return nil, schemaErr("unknown block kind")
	}
	if args.Name != kind.Name {
		return nil, schemaErr("schema mismatch: descriptor names kind %q but schema is %q", args.Name, kind.Name)
	}
	if args.ID == "" {
		return nil, schemaErr("block id must not be empty")
	}

	if err := checkArity(args); err != nil {
		return nil, schemaErr("%s", err)
	}
	if args.Direction != kind.Direction {
		return nil, schemaErr("direction %s does not match kind direction %s", args.Direction, kind.Direction)
	}
	if args.Inputs < kind.MinInputs || args.Inputs > kind.MaxInputs {
		return nil, schemaErr("%d input ports outside the allowed range [%d, %d]", args.Inputs, kind.MinInputs, kind.MaxInputs)
	}
	if args.Outputs < kind.MinOutputs || args.Outputs > kind.MaxOutputs {
		return nil, schemaErr("%d output ports outside the allowed range [%d, %d]", args.Outputs, kind.MinOutputs, kind.MaxOutputs)
	}

	switch {
	case kind.Bus == "" && args.Bus != nil:
		return nil, schemaErr("kind takes no bus but is bound to %s", args.Bus)
	case kind.Bus != "" && args.Bus == nil:
		return nil, schemaErr("kind requires a %q bus", kind.Bus)
	case args.Bus != nil && args.Bus.Protocol != kind.Bus:
		return nil, schemaErr("bus %s has protocol %q, kind requires %q", args.Bus, args.Bus.Protocol, kind.Bus)
	}

	d := &Descriptor{
		id:          args.ID,
		name:        args.Name,
		inputs:      makePorts(args.Inputs),
		outputs:     makePorts(args.Outputs),
		timing:      args.Timing,
		direction:   args.Direction,
		feedthrough: !kind.Delay,
	}
	if args.Bus != nil {
		bus := *args.Bus
		d.bus = &bus
	}

	if err := d.bindParams(kind, args.Params); err != nil {
		return nil, err
	}

	if d.bus != nil && !d.hasDeviceID {
		return nil, schemaErr("bound to bus %s without a device ID", d.bus)
	}

	return d, nil
}

// checkArity enforces the direction/port-arity invariant independently of
// any kind bounds.
func checkArity(args Args) error {
	switch args.Direction {
	case Sink:
		if args.Inputs == 0 || args.Outputs != 0 {
			return fmt.Errorf("a sink needs input ports and no output ports (got %d in, %d out)", args.Inputs, args.Outputs)
		}
	case Source:
		if args.Outputs == 0 || args.Inputs != 0 {
			return fmt.Errorf("a source needs output ports and no input ports (got %d in, %d out)", args.Inputs, args.Outputs)
		}
	case Inline:
		if args.Inputs == 0 || args.Outputs == 0 {
			return fmt.Errorf("an inline block needs both input and output ports (got %d in, %d out)", args.Inputs, args.Outputs)
		}
	default:
		return fmt.Errorf("invalid direction %d", int(args.Direction))
	}
	return nil
}

func makePorts(n int) []Port {
	ports := make([]Port, n)
	for i := range ports {
		ports[i] = Port{Index: i}
	}
	return ports
}

// bindParams validates raw values against the kind's parameter schema and
// stores them in declaration order.
func (d *Descriptor) bindParams(kind *Kind, raw map[string]cty.Value) error {
	paramErr := func(name, format string, a ...any) error {
		return &ParameterError{Block: d.id, Kind: d.name, Param: name, Reason: fmt.Sprintf(format, a...)}
	}

	// Report unknown names in a stable order.
	var unknown []string
	for name := range raw {
		if _, ok := kind.Param(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return paramErr(unknown[0], "not declared by kind")
	}

	for i := range kind.Params {
		spec := &kind.Params[i]

		val, provided := raw[spec.Name]
		if !provided {
			if spec.Default == nil {
				return paramErr(spec.Name, "required parameter is missing")
			}
			val = *spec.Default
		}

		norm, err := normalizeValue(spec, val)
		if err != nil {
			return paramErr(spec.Name, "%s", err)
		}

		if spec.Role == RoleDeviceID {
			var id int
			if err := gocty.FromCtyValue(norm, &id); err != nil {
				return paramErr(spec.Name, "invalid device ID: %s", err)
			}
			if d.bus != nil && (id < 1 || id > d.bus.MaxDeviceID) {
				return paramErr(spec.Name, "device ID %d outside the range [1, %d] of bus %s", id, d.bus.MaxDeviceID, d.bus)
			}
			d.deviceID = id
			d.hasDeviceID = true
		}

		p := Param{Name: spec.Name, Value: norm}
		if spec.Class == ClassDevice {
			d.deviceParams = append(d.deviceParams, p)
		} else {
			d.staticParams = append(d.staticParams, p)
		}
	}
	return nil
}

func checkValue(spec *ParamSpec, v cty.Value) error {
	_, err := normalizeValue(spec, v)
	return err
}

// normalizeValue converts v to the declared type and enforces the numeric
// constraints of the declaration.
func normalizeValue(spec *ParamSpec, v cty.Value) (cty.Value, error) {
	if v.IsNull() {
		return cty.NilVal, errors.New("value must not be null")
	}
	if !v.IsWhollyKnown() {
		return cty.NilVal, errors.New("value must be known at compile time")
	}

	conv, err := convert.Convert(v, spec.Type)
	if err != nil {
		return cty.NilVal, fmt.Errorf("expected %s: %s", spec.Type.FriendlyName(), err)
	}
	if !spec.Type.Equals(cty.Number) {
		return conv, nil
	}

	bf := conv.AsBigFloat()
	if spec.Integer && !bf.IsInt() {
		return cty.NilVal, fmt.Errorf("must be a whole number, got %s", bf.Text('g', -1))
	}
	f, _ := bf.Float64()
	if spec.Role == RoleDecimation && f <= 0 {
		return cty.NilVal, fmt.Errorf("must be a positive integer, got %s", bf.Text('g', -1))
	}
	if spec.Min != nil && f < *spec.Min {
		return cty.NilVal, fmt.Errorf("must be >= %g, got %s", *spec.Min, bf.Text('g', -1))
	}
	if spec.Max != nil && f > *spec.Max {
		return cty.NilVal, fmt.Errorf("must be <= %g, got %s", *spec.Max, bf.Text('g', -1))
	}
	return conv, nil
}
