package descriptor

import (
	"errors"
	"testing"

	"github.com/specialistvlad/rcpgrid/internal/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func ptr[T any](v T) *T { return &v }

func serialOutKind() *Kind {
	return &Kind{
		Name:      "serialOut",
		Direction: Sink,
		MinInputs: 1,
		MaxInputs: 1,
		Timing:    Timing{Rate: 0, Priority: 0},
		Params: []ParamSpec{
			{Name: "decim", Type: cty.Number, Class: ClassStatic, Role: RoleDecimation, Integer: true, Min: ptr(1.0)},
		},
	}
}

func canSinkKind() *Kind {
	return &Kind{
		Name:      "FH_5XXX_setTQ",
		Direction: Sink,
		Bus:       "can",
		MinInputs: 1,
		MaxInputs: 1,
		Params: []ParamSpec{
			{Name: "id", Type: cty.Number, Class: ClassDevice, Role: RoleDeviceID, Integer: true, Min: ptr(1.0), Max: ptr(127.0)},
		},
	}
}

func canBus() *BusHandle {
	return &BusHandle{Name: "can0", Protocol: "can", MaxDeviceID: 127}
}

func requireSchemaError(t *testing.T, err error) *SchemaError {
	t.Helper()
	var se *SchemaError
	require.True(t, errors.As(err, &se), "expected SchemaError, got %v", err)
	assert.Equal(t, errcode.Schema, errcode.Of(err))
	return se
}

func requireParameterError(t *testing.T, err error, param string) *ParameterError {
	t.Helper()
	var pe *ParameterError
	require.True(t, errors.As(err, &pe), "expected ParameterError, got %v", err)
	assert.Equal(t, param, pe.Param)
	assert.Equal(t, errcode.Parameter, errcode.Of(err))
	return pe
}

func TestConstruct_SerialOut(t *testing.T) {
	d, err := Construct(serialOutKind(), Args{
		ID:        "log",
		Name:      "serialOut",
		Inputs:    1,
		Timing:    Timing{Rate: 10, Priority: 3},
		Direction: Sink,
		Params:    map[string]cty.Value{"decim": cty.NumberIntVal(10)},
	})
	require.NoError(t, err)

	assert.Equal(t, "log", d.ID())
	assert.Equal(t, "serialOut", d.Name())
	assert.Equal(t, Sink, d.Direction())
	assert.Equal(t, 1, d.NumInputs())
	assert.Equal(t, 0, d.NumOutputs())
	assert.Equal(t, Timing{Rate: 10, Priority: 3}, d.Timing())
	assert.True(t, d.Feedthrough())

	static := d.StaticParams()
	require.Len(t, static, 1)
	assert.Equal(t, "decim", static[0].Name)
	assert.True(t, static[0].Value.RawEquals(cty.NumberIntVal(10)))
	assert.Empty(t, d.DeviceParams())

	_, hasBus := d.Bus()
	assert.False(t, hasBus)
	_, hasID := d.DeviceID()
	assert.False(t, hasID)
	assert.Equal(t, "log(serialOut)", d.String())
}

func TestConstruct_DecimationZero(t *testing.T) {
	_, err := Construct(serialOutKind(), Args{
		ID:        "log",
		Name:      "serialOut",
		Inputs:    1,
		Direction: Sink,
		Params:    map[string]cty.Value{"decim": cty.Zero},
	})
	pe := requireParameterError(t, err, "decim")
	assert.Contains(t, pe.Reason, "positive integer")
}

func TestConstruct_ArityInvariant(t *testing.T) {
	inline := &Kind{Name: "gain", Direction: Inline, MinInputs: 1, MaxInputs: 1, MinOutputs: 1, MaxOutputs: 1}
	source := &Kind{Name: "constant", Direction: Source, MinOutputs: 1, MaxOutputs: 1}

	testCases := []struct {
		name string
		kind *Kind
		args Args
	}{
		{
			name: "sink with outputs",
			kind: serialOutKind(),
			args: Args{ID: "a", Name: "serialOut", Inputs: 1, Outputs: 1, Direction: Sink},
		},
		{
			name: "sink without inputs",
			kind: serialOutKind(),
			args: Args{ID: "a", Name: "serialOut", Direction: Sink},
		},
		{
			name: "source with inputs",
			kind: source,
			args: Args{ID: "a", Name: "constant", Inputs: 1, Outputs: 1, Direction: Source},
		},
		{
			name: "source without outputs",
			kind: source,
			args: Args{ID: "a", Name: "constant", Direction: Source},
		},
		{
			name: "inline without outputs",
			kind: inline,
			args: Args{ID: "a", Name: "gain", Inputs: 1, Direction: Inline},
		},
		{
			name: "unknown direction",
			kind: serialOutKind(),
			args: Args{ID: "a", Name: "serialOut", Inputs: 1, Direction: Direction(7)},
		},
		{
			name: "direction differs from kind",
			kind: source,
			args: Args{ID: "a", Name: "constant", Inputs: 1, Direction: Sink},
		},
		{
			name: "too many inputs for kind",
			kind: serialOutKind(),
			args: Args{ID: "a", Name: "serialOut", Inputs: 2, Direction: Sink},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Construct(tc.kind, tc.args)
			assert.Nil(t, d)
			se := requireSchemaError(t, err)
			assert.Equal(t, "a", se.Block)
		})
	}
}

func TestConstruct_SchemaMismatch(t *testing.T) {
	testCases := []struct {
		name string
		kind *Kind
		args Args
	}{
		{name: "empty name", kind: serialOutKind(), args: Args{ID: "a", Inputs: 1, Direction: Sink}},
		{name: "nil kind", kind: nil, args: Args{ID: "a", Name: "nope", Inputs: 1, Direction: Sink}},
		{name: "name differs from kind", kind: serialOutKind(), args: Args{ID: "a", Name: "other", Inputs: 1, Direction: Sink}},
		{name: "empty id", kind: serialOutKind(), args: Args{Name: "serialOut", Inputs: 1, Direction: Sink}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Construct(tc.kind, tc.args)
			requireSchemaError(t, err)
		})
	}
}

func TestConstruct_Params(t *testing.T) {
	kind := &Kind{
		Name:      "plotJuggler",
		Direction: Sink,
		MinInputs: 1,
		MaxInputs: 8,
		Params: []ParamSpec{
			{Name: "port", Type: cty.Number, Integer: true, Min: ptr(1.0), Max: ptr(65535.0)},
			{Name: "host", Type: cty.String, Default: ptr(cty.StringVal("127.0.0.1"))},
		},
	}
	base := func(params map[string]cty.Value) Args {
		return Args{ID: "pj", Name: "plotJuggler", Inputs: 2, Direction: Sink, Params: params}
	}

	t.Run("defaults are applied in declaration order", func(t *testing.T) {
		d, err := Construct(kind, base(map[string]cty.Value{"port": cty.NumberIntVal(9870)}))
		require.NoError(t, err)
		static := d.StaticParams()
		require.Len(t, static, 2)
		assert.Equal(t, "port", static[0].Name)
		assert.Equal(t, "host", static[1].Name)
		assert.Equal(t, "127.0.0.1", static[1].Value.AsString())
	})

	t.Run("string is converted to number", func(t *testing.T) {
		d, err := Construct(kind, base(map[string]cty.Value{"port": cty.StringVal("9870")}))
		require.NoError(t, err)
		v, ok := d.Param("port")
		require.True(t, ok)
		assert.True(t, v.Equals(cty.NumberIntVal(9870)).True())
	})

	testCases := []struct {
		name   string
		params map[string]cty.Value
		param  string
	}{
		{name: "missing required", params: map[string]cty.Value{}, param: "port"},
		{name: "unknown name", params: map[string]cty.Value{"port": cty.NumberIntVal(1), "zeta": cty.True, "alpha": cty.True}, param: "alpha"},
		{name: "fractional integer", params: map[string]cty.Value{"port": cty.NumberFloatVal(1.5)}, param: "port"},
		{name: "above max", params: map[string]cty.Value{"port": cty.NumberIntVal(70000)}, param: "port"},
		{name: "wrong type", params: map[string]cty.Value{"port": cty.ListValEmpty(cty.String)}, param: "port"},
		{name: "null value", params: map[string]cty.Value{"port": cty.NullVal(cty.Number)}, param: "port"},
		{name: "unknown value", params: map[string]cty.Value{"port": cty.UnknownVal(cty.Number)}, param: "port"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Construct(kind, base(tc.params))
			requireParameterError(t, err, tc.param)
		})
	}
}

func TestConstruct_Bus(t *testing.T) {
	args := func(id int64, bus *BusHandle) Args {
		return Args{
			ID:        "tq",
			Name:      "FH_5XXX_setTQ",
			Inputs:    1,
			Direction: Sink,
			Params:    map[string]cty.Value{"id": cty.NumberIntVal(id)},
			Bus:       bus,
		}
	}

	t.Run("device id is split into device params", func(t *testing.T) {
		d, err := Construct(canSinkKind(), args(5, canBus()))
		require.NoError(t, err)

		bus, ok := d.Bus()
		require.True(t, ok)
		assert.Equal(t, "can0", bus.Name)
		id, ok := d.DeviceID()
		require.True(t, ok)
		assert.Equal(t, 5, id)
		require.Len(t, d.DeviceParams(), 1)
		assert.Empty(t, d.StaticParams())
	})

	t.Run("device id above bus maximum", func(t *testing.T) {
		small := &BusHandle{Name: "can1", Protocol: "can", MaxDeviceID: 8}
		_, err := Construct(canSinkKind(), args(9, small))
		requireParameterError(t, err, "id")
	})

	t.Run("device id zero", func(t *testing.T) {
		_, err := Construct(canSinkKind(), args(0, canBus()))
		requireParameterError(t, err, "id")
	})

	t.Run("missing bus", func(t *testing.T) {
		_, err := Construct(canSinkKind(), args(5, nil))
		requireSchemaError(t, err)
	})

	t.Run("protocol mismatch", func(t *testing.T) {
		udp := &BusHandle{Name: "net", Protocol: "udp", MaxDeviceID: 10}
		_, err := Construct(canSinkKind(), args(5, udp))
		requireSchemaError(t, err)
	})

	t.Run("bus on a kind without one", func(t *testing.T) {
		_, err := Construct(serialOutKind(), Args{
			ID: "log", Name: "serialOut", Inputs: 1, Direction: Sink,
			Params: map[string]cty.Value{"decim": cty.NumberIntVal(1)},
			Bus:    canBus(),
		})
		requireSchemaError(t, err)
	})
}

func TestDescriptor_Immutable(t *testing.T) {
	bus := canBus()
	d, err := Construct(canSinkKind(), Args{
		ID: "tq", Name: "FH_5XXX_setTQ", Inputs: 1, Direction: Sink,
		Params: map[string]cty.Value{"id": cty.NumberIntVal(5)},
		Bus:    bus,
	})
	require.NoError(t, err)

	bus.Name = "mutated"
	got, _ := d.Bus()
	assert.Equal(t, "can0", got.Name)

	inputs := d.Inputs()
	inputs[0].Index = 42
	assert.Equal(t, 0, d.Inputs()[0].Index)

	params := d.DeviceParams()
	params[0].Name = "mutated"
	assert.Equal(t, "id", d.DeviceParams()[0].Name)
}
