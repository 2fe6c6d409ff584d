package busregistry

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/errcode"
	"github.com/specialistvlad/rcpgrid/internal/kindreg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func builtins(t *testing.T) *kindreg.Registry {
	t.Helper()
	reg := kindreg.New()
	require.NoError(t, reg.LoadBuiltins(context.Background()))
	return reg
}

func onBus(t *testing.T, reg *kindreg.Registry, id, kind string, bus string, device int64) *descriptor.Descriptor {
	t.Helper()
	k, ok := reg.Lookup(kind)
	require.True(t, ok)

	args := descriptor.Args{
		ID:        id,
		Name:      kind,
		Direction: k.Direction,
		Params:    map[string]cty.Value{"id": cty.NumberIntVal(device)},
		Bus:       &descriptor.BusHandle{Name: bus, Protocol: "can", MaxDeviceID: 127},
	}
	if k.Direction == descriptor.Sink {
		args.Inputs = 1
	} else {
		args.Outputs = 1
	}
	d, err := reg.Construct(args)
	require.NoError(t, err)
	return d
}

func TestRegister_DuplicateWriter(t *testing.T) {
	reg := builtins(t)
	ctx := context.Background()
	r := New()

	require.NoError(t, r.Register(ctx, onBus(t, reg, "speed", "FH_5XXX_V", "B", 5)))
	err := r.Register(ctx, onBus(t, reg, "torque", "FH_5XXX_setTQ", "B", 5))

	var de *DuplicateDeviceBindingError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, "B", de.Bus)
	assert.Equal(t, 5, de.DeviceID)
	assert.Equal(t, Write, de.Access)
	assert.Equal(t, "speed", de.Existing)
	assert.Equal(t, "torque", de.Incoming)
	assert.Equal(t, errcode.DuplicateDeviceBinding, errcode.Of(err))
}

func TestRegister_ReaderAndWriterShareDevice(t *testing.T) {
	reg := builtins(t)
	ctx := context.Background()
	r := New()

	require.NoError(t, r.Register(ctx, onBus(t, reg, "getTQ", "FH_5XXX_getTQ", "B", 5)))
	require.NoError(t, r.Register(ctx, onBus(t, reg, "setTQ", "FH_5XXX_setTQ", "B", 5)))
	require.NoError(t, r.Register(ctx, onBus(t, reg, "other", "FH_5XXX_setTQ", "A", 5)), "same device ID on another bus")

	err := r.Register(ctx, onBus(t, reg, "getV", "FH_3XXX_getV", "B", 5))
	var de *DuplicateDeviceBindingError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, Read, de.Access)
}

func TestFinalize_Order(t *testing.T) {
	reg := builtins(t)
	ctx := context.Background()
	r := New()

	for _, d := range []*descriptor.Descriptor{
		onBus(t, reg, "b7r", "FH_5XXX_getTQ", "can1", 7),
		onBus(t, reg, "a9w", "FH_5XXX_setTQ", "can0", 9),
		onBus(t, reg, "b2w", "FH_5XXX_V", "can1", 2),
		onBus(t, reg, "b7w", "FH_5XXX_setTQ", "can1", 7),
		onBus(t, reg, "a3r", "FH_3XXX_getV", "can0", 3),
	} {
		require.NoError(t, r.Register(ctx, d))
	}

	var got []string
	for _, tx := range r.Finalize(ctx) {
		got = append(got, tx.Descriptor.ID())
	}
	assert.Equal(t, []string{"a3r", "a9w", "b2w", "b7w", "b7r"}, got)
}

func TestRegister_AfterFinalize(t *testing.T) {
	reg := builtins(t)
	ctx := context.Background()
	r := New()

	assert.Empty(t, r.Finalize(ctx))
	err := r.Register(ctx, onBus(t, reg, "x", "FH_5XXX_V", "can0", 1))
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestRegister_NoBus(t *testing.T) {
	reg := builtins(t)
	d, err := reg.Construct(descriptor.Args{ID: "log", Name: "serialOut", Inputs: 1, Direction: descriptor.Sink})
	require.NoError(t, err)

	err = New().Register(context.Background(), d)
	var se *descriptor.SchemaError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, "log", se.Block)
}

func TestTransaction_String(t *testing.T) {
	reg := builtins(t)
	ctx := context.Background()
	r := New()
	require.NoError(t, r.Register(ctx, onBus(t, reg, "tq", "FH_5XXX_setTQ", "can0", 12)))

	txs := r.Finalize(ctx)
	require.Len(t, txs, 1)
	assert.Equal(t, "write can0/12 by tq", txs[0].String())
}
