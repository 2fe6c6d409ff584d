package busregistry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/errcode"
)

// ErrFinalized is returned by Register once Finalize has been called.
var ErrFinalized = errors.New("bus registry is finalized")

// Access is the direction of a transaction as seen from the bus.
type Access int

const (
	// Write sends a value to the device (sink blocks).
	Write Access = iota
	// Read fetches a value from the device (source blocks).
	Read
)

func (a Access) String() string {
	if a == Write {
		return "write"
	}
	return "read"
}

// Transaction is one device access on a shared bus.
type Transaction struct {
	Bus        descriptor.BusHandle
	DeviceID   int
	Access     Access
	Descriptor *descriptor.Descriptor
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s %s/%d by %s", t.Access, t.Bus.Name, t.DeviceID, t.Descriptor.ID())
}

// DuplicateDeviceBindingError reports a second claim of the same device
// slot on a bus.
type DuplicateDeviceBindingError struct {
	Bus      string
	DeviceID int
	Access   Access
	Existing string
	Incoming string
}

func (e *DuplicateDeviceBindingError) Error() string {
	return fmt.Sprintf("bus %q device %d: %s already bound to block %q, cannot also bind block %q",
		e.Bus, e.DeviceID, e.Access, e.Existing, e.Incoming)
}

// Code implements the errcode coder contract.
func (e *DuplicateDeviceBindingError) Code() errcode.Code { return errcode.DuplicateDeviceBinding }

type slot struct {
	bus      string
	deviceID int
	access   Access
}

// Registry collects the bus transactions of one pass. It is not safe for
// concurrent use; create one per pass.
type Registry struct {
	slots     map[slot]*descriptor.Descriptor
	txs       []Transaction
	finalized bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{slots: make(map[slot]*descriptor.Descriptor)}
}

// Register claims the device slot of a bus-bound descriptor.
func (r *Registry) Register(ctx context.Context, d *descriptor.Descriptor) error {
	if r.finalized {
		return ErrFinalized
	}

	bus, hasBus := d.Bus()
	id, hasID := d.DeviceID()
	if !hasBus || !hasID {
		return &descriptor.SchemaError{Block: d.ID(), Kind: d.Name(), Reason: "registered on a bus without a bus handle and device ID"}
	}

	var access Access
	switch d.Direction() {
	case descriptor.Sink:
		access = Write
	case descriptor.Source:
		access = Read
	default:
		return &descriptor.SchemaError{Block: d.ID(), Kind: d.Name(), Reason: fmt.Sprintf("a %s block cannot be a bus transaction", d.Direction())}
	}

	key := slot{bus: bus.Name, deviceID: id, access: access}
	if existing, taken := r.slots[key]; taken {
		return &DuplicateDeviceBindingError{
			Bus:      bus.Name,
			DeviceID: id,
			Access:   access,
			Existing: existing.ID(),
			Incoming: d.ID(),
		}
	}

	r.slots[key] = d
	r.txs = append(r.txs, Transaction{Bus: bus, DeviceID: id, Access: access, Descriptor: d})
	ctxlog.ForBlock(ctx, d.ID()).Debug("Registered bus transaction.", "bus", bus.Name, "device", id, "access", access.String())
	return nil
}

// Finalize closes the registry and returns the transactions ordered by bus
// name, device ID, then writers before readers.
func (r *Registry) Finalize(ctx context.Context) []Transaction {
	r.finalized = true

	out := append([]Transaction(nil), r.txs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Bus.Name != b.Bus.Name {
			return a.Bus.Name < b.Bus.Name
		}
		if a.DeviceID != b.DeviceID {
			return a.DeviceID < b.DeviceID
		}
		return a.Access < b.Access
	})

	ctxlog.FromContext(ctx).Debug("Bus registry finalized.", "transactions", len(out))
	return out
}
