package descriptor

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ParamClass separates compile-time constants from bus-transaction
// parameters.
type ParamClass int

const (
	// ClassStatic parameters are compile-time constants (decimation, host).
	ClassStatic ParamClass = iota
	// ClassDevice parameters travel with bus transactions (device ID).
	ClassDevice
)

func (c ParamClass) String() string {
	if c == ClassDevice {
		return "device"
	}
	return "static"
}

// ParamRole tags parameters whose meaning the compiler relies on.
type ParamRole string

const (
	RoleNone       ParamRole = ""
	RoleDeviceID   ParamRole = "device_id"
	RoleDecimation ParamRole = "decimation"
)

// ParamSpec declares one parameter of a block kind.
type ParamSpec struct {
	Name        string
	Description string
	Type        cty.Type
	Class       ParamClass
	Role        ParamRole

	// Integer restricts number parameters to whole values.
	Integer bool
	// Min and Max bound number parameters inclusively when set.
	Min *float64
	Max *float64

	// Default is used when a block omits the parameter. A nil Default makes
	// the parameter required.
	Default *cty.Value
}

// Kind is the per-kind schema every descriptor of that kind is validated
// against. The same Kind value is shared by all descriptors of the kind and
// must not be modified after registration.
type Kind struct {
	Name        string
	Description string
	Direction   Direction

	// Bus is the protocol a descriptor of this kind must be bound to
	// (for example "can"). Empty means the kind takes no bus.
	Bus string

	MinInputs, MaxInputs   int
	MinOutputs, MaxOutputs int

	// Timing is the default timing pair for new instances.
	Timing Timing

	// Delay marks kinds whose outputs do not depend on the current value of
	// their inputs (unit delays). Wires into such blocks do not constrain
	// execution order. Only inline kinds may set it.
	Delay bool

	Params []ParamSpec
}

// Param looks up a parameter declaration by name.
func (k *Kind) Param(name string) (*ParamSpec, bool) {
	for i := range k.Params {
		if k.Params[i].Name == name {
			return &k.Params[i], true
		}
	}
	return nil, false
}

// DeviceIDParam returns the parameter carrying the device ID, if the kind
// declares one.
func (k *Kind) DeviceIDParam() (*ParamSpec, bool) {
	for i := range k.Params {
		if k.Params[i].Role == RoleDeviceID {
			return &k.Params[i], true
		}
	}
	return nil, false
}

// Validate checks the kind declaration itself. It is run once when a kind is
// registered so that every descriptor built from it can trust the schema.
func (k *Kind) Validate() error {
	if k.Name == "" {
		return fmt.Errorf("kind name must not be empty")
	}
	if !k.Direction.Valid() {
		return fmt.Errorf("kind %q: invalid direction %d", k.Name, int(k.Direction))
	}
	if k.MinInputs < 0 || k.MinOutputs < 0 {
		return fmt.Errorf("kind %q: port minimums must not be negative", k.Name)
	}
	if k.MaxInputs < k.MinInputs || k.MaxOutputs < k.MinOutputs {
		return fmt.Errorf("kind %q: port maximum below minimum", k.Name)
	}

	switch k.Direction {
	case Source:
		if k.MaxInputs != 0 || k.MinOutputs < 1 {
			return fmt.Errorf("kind %q: a source takes no inputs and at least one output", k.Name)
		}
	case Sink:
		if k.MaxOutputs != 0 || k.MinInputs < 1 {
			return fmt.Errorf("kind %q: a sink takes no outputs and at least one input", k.Name)
		}
	case Inline:
		if k.MinInputs < 1 || k.MinOutputs < 1 {
			return fmt.Errorf("kind %q: an inline block needs at least one input and one output", k.Name)
		}
	}
	if k.Delay && k.Direction != Inline {
		return fmt.Errorf("kind %q: only inline kinds can be delays, got %s", k.Name, k.Direction)
	}

	seen := make(map[string]struct{}, len(k.Params))
	deviceIDs := 0
	for _, p := range k.Params {
		if p.Name == "" {
			return fmt.Errorf("kind %q: parameter name must not be empty", k.Name)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("kind %q: duplicate parameter %q", k.Name, p.Name)
		}
		seen[p.Name] = struct{}{}

		if p.Type == cty.NilType {
			return fmt.Errorf("kind %q, parameter %q: missing type", k.Name, p.Name)
		}
		if (p.Integer || p.Min != nil || p.Max != nil) && !p.Type.Equals(cty.Number) {
			return fmt.Errorf("kind %q, parameter %q: integer and range constraints need type number", k.Name, p.Name)
		}
		if p.Min != nil && p.Max != nil && *p.Max < *p.Min {
			return fmt.Errorf("kind %q, parameter %q: max below min", k.Name, p.Name)
		}

		switch p.Role {
		case RoleNone:
		case RoleDeviceID:
			deviceIDs++
			if p.Class != ClassDevice || !p.Integer {
				return fmt.Errorf("kind %q, parameter %q: a device ID must be an integer device parameter", k.Name, p.Name)
			}
		case RoleDecimation:
			if !p.Integer || p.Min == nil || *p.Min < 1 {
				return fmt.Errorf("kind %q, parameter %q: a decimation must be an integer with min >= 1", k.Name, p.Name)
			}
		default:
			return fmt.Errorf("kind %q, parameter %q: unknown role %q", k.Name, p.Name, p.Role)
		}

		if p.Default != nil {
			if err := checkValue(&p, *p.Default); err != nil {
				return fmt.Errorf("kind %q, parameter %q: invalid default: %s", k.Name, p.Name, err)
			}
		}
	}

	if k.Bus != "" {
		if k.Direction == Inline {
			return fmt.Errorf("kind %q: bus-bound kinds must be a source or a sink", k.Name)
		}
		if deviceIDs != 1 {
			return fmt.Errorf("kind %q: bus-bound kinds need exactly one device_id parameter", k.Name)
		}
	} else if deviceIDs != 0 {
		return fmt.Errorf("kind %q: device_id parameter declared without a bus", k.Name)
	}

	return nil
}
