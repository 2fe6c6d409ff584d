package diagram

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/errcode"
	"github.com/specialistvlad/rcpgrid/internal/fsutil"
	"github.com/specialistvlad/rcpgrid/internal/portref"
	"github.com/zclconf/go-cty/cty"
)

// Load reads a diagram from a single .hcl file or from every .hcl file
// under a directory. Files are read in lexical order and their blocks are
// concatenated, so declaration order is stable across runs.
func Load(ctx context.Context, path string) (*Diagram, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading diagram...", "path", path)

	filePaths, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find diagram files in %s: %w", errcode.Load, path, err)
	}
	if len(filePaths) == 0 {
		return nil, fmt.Errorf("%w: no .hcl diagram files found in %s", errcode.Load, path)
	}

	l := newLoader()
	for _, filePath := range filePaths {
		file, diags := l.parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: failed to parse diagram file %s: %w", errcode.Load, filePath, diags)
		}
		l.decodeFile(file, filePath)
	}

	d, err := l.finish()
	if err != nil {
		return nil, err
	}
	logger.Info("Diagram loaded.", "files", len(d.Files), "blocks", len(d.Blocks), "buses", len(d.Buses), "wires", len(d.Wires))
	return d, nil
}

// Parse reads a diagram from in-memory HCL source.
func Parse(ctx context.Context, src []byte, filename string) (*Diagram, error) {
	ctxlog.FromContext(ctx).Debug("Parsing diagram source.", "file", filename)

	l := newLoader()
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse diagram file %s: %w", errcode.Load, filename, diags)
	}
	l.decodeFile(file, filename)
	return l.finish()
}

// loader accumulates decoded blocks and diagnostics across files.
type loader struct {
	parser  *hclparse.Parser
	diagram *Diagram
	diags   hcl.Diagnostics

	buses  map[string]*Bus
	blocks map[string]*Block
}

func newLoader() *loader {
	return &loader{
		parser:  hclparse.NewParser(),
		diagram: &Diagram{},
		buses:   make(map[string]*Bus),
		blocks:  make(map[string]*Block),
	}
}

func (l *loader) finish() (*Diagram, error) {
	if l.diags.HasErrors() {
		return nil, fmt.Errorf("%w: invalid diagram: %w", errcode.Load, l.diags)
	}
	return l.diagram, nil
}

func (l *loader) decodeFile(file *hcl.File, filename string) {
	l.diagram.Files = append(l.diagram.Files, filename)

	var root fileSchema
	diags := gohcl.DecodeBody(file.Body, nil, &root)
	l.diags = append(l.diags, diags...)
	if diags.HasErrors() {
		return
	}

	for _, bb := range root.Buses {
		l.addBus(bb)
	}
	for _, bb := range root.Blocks {
		l.addBlock(bb)
	}
	for _, wb := range root.Wires {
		l.addWire(wb)
	}
}

func (l *loader) addBus(bb *busBlock) {
	declRange := bb.Body.MissingItemRange()

	var body busBody
	diags := gohcl.DecodeBody(bb.Body, nil, &body)
	l.diags = append(l.diags, diags...)
	if diags.HasErrors() {
		return
	}

	if prev, dup := l.buses[bb.Name]; dup {
		l.diags = append(l.diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Duplicate bus",
			Detail:   fmt.Sprintf("A bus named '%s' was already declared at %s.", bb.Name, prev.DeclRange),
			Subject:  &declRange,
		})
		return
	}

	bus := &Bus{Name: bb.Name, Protocol: body.Protocol, DeclRange: declRange}
	switch {
	case body.MaxDeviceID != nil:
		bus.MaxDeviceID = *body.MaxDeviceID
	case body.Protocol == "can":
		bus.MaxDeviceID = DefaultCANMaxDeviceID
	default:
		l.diags = append(l.diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing max_device_id",
			Detail:   fmt.Sprintf("Bus '%s' uses protocol '%s', which has no default address range; set max_device_id.", bb.Name, body.Protocol),
			Subject:  &declRange,
		})
		return
	}
	if bus.MaxDeviceID < 1 {
		l.diags = append(l.diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid max_device_id",
			Detail:   fmt.Sprintf("Bus '%s': max_device_id must be at least 1, got %d.", bb.Name, bus.MaxDeviceID),
			Subject:  &declRange,
		})
		return
	}

	l.buses[bus.Name] = bus
	l.diagram.Buses = append(l.diagram.Buses, bus)
}

func (l *loader) addBlock(bb *blockBlock) {
	declRange := bb.Body.MissingItemRange()

	if err := portref.ValidateBlockID(bb.ID); err != nil {
		l.diags = append(l.diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid block identifier",
			Detail:   err.Error() + ".",
			Subject:  &declRange,
		})
		return
	}
	if prev, dup := l.blocks[bb.ID]; dup {
		l.diags = append(l.diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Duplicate block",
			Detail:   fmt.Sprintf("A block with id '%s' was already declared at %s.", bb.ID, prev.DeclRange),
			Subject:  &declRange,
		})
		return
	}

	var body blockBody
	diags := gohcl.DecodeBody(bb.Body, nil, &body)
	l.diags = append(l.diags, diags...)
	if diags.HasErrors() {
		return
	}

	block := &Block{
		ID:        bb.ID,
		Kind:      bb.Kind,
		Inputs:    body.Inputs,
		Outputs:   body.Outputs,
		Params:    map[string]cty.Value{},
		DeclRange: declRange,
	}
	if body.Bus != nil {
		block.Bus = *body.Bus
	}

	var blockDiags hcl.Diagnostics
	block.Direction, diags = decodeDirection(body.Direction)
	blockDiags = append(blockDiags, diags...)
	block.Timing, diags = decodeTiming(body.Timing)
	blockDiags = append(blockDiags, diags...)
	block.Params, diags = decodeParams(body.Params)
	blockDiags = append(blockDiags, diags...)

	l.diags = append(l.diags, blockDiags...)
	if blockDiags.HasErrors() {
		return
	}

	l.blocks[block.ID] = block
	l.diagram.Blocks = append(l.diagram.Blocks, block)
}

func (l *loader) addWire(wb *wireBlock) {
	from, diags := refText(wb.From)
	l.diags = append(l.diags, diags...)
	if diags.HasErrors() {
		return
	}

	wire := &Wire{DeclRange: hcl.RangeBetween(wb.From.Range(), wb.To.Range())}
	ref, err := portref.Parse(from)
	if err != nil {
		l.diags = append(l.diags, refDiag(err, wb.From))
		return
	}
	wire.From = ref

	targets, diags := decodeTargets(wb.To)
	l.diags = append(l.diags, diags...)
	if diags.HasErrors() {
		return
	}
	for _, raw := range targets {
		ref, err := portref.Parse(raw)
		if err != nil {
			l.diags = append(l.diags, refDiag(err, wb.To))
			return
		}
		wire.To = append(wire.To, ref)
	}

	l.diagram.Wires = append(l.diagram.Wires, wire)
}

func refDiag(err error, expr hcl.Expression) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid port reference",
		Detail:   err.Error() + ".",
		Subject:  expr.Range().Ptr(),
	}
}

// decodeTargets accepts either a list of references or a single one.
func decodeTargets(expr hcl.Expression) ([]string, hcl.Diagnostics) {
	elems, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		single, diags := refText(expr)
		return []string{single}, diags
	}

	targets := make([]string, 0, len(elems))
	for _, elem := range elems {
		ref, refDiags := refText(elem)
		diags = append(diags, refDiags...)
		targets = append(targets, ref)
	}
	return targets, diags
}

// refText returns the port reference written by expr, either quoted
// ("tq.out[0]") or as a bare traversal (tq.out[0]).
func refText(expr hcl.Expression) (string, hcl.Diagnostics) {
	if traversal, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() {
		return string(hclwrite.TokensForTraversal(traversal).Bytes()), nil
	}

	var ref string
	diags := gohcl.DecodeExpression(expr, nil, &ref)
	return ref, diags
}

func decodeDirection(expr hcl.Expression) (*descriptor.Direction, hcl.Diagnostics) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() || val.IsNull() {
		return nil, diags
	}

	var raw string
	diags = append(diags, gohcl.DecodeExpression(expr, nil, &raw)...)
	if diags.HasErrors() {
		return nil, diags
	}
	dir, err := descriptor.ParseDirection(raw)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid direction",
			Detail:   err.Error() + ".",
			Subject:  expr.Range().Ptr(),
		})
		return nil, diags
	}
	return &dir, diags
}

func decodeTiming(expr hcl.Expression) (*descriptor.Timing, hcl.Diagnostics) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() || val.IsNull() {
		return nil, diags
	}

	var pair []int
	diags = append(diags, gohcl.DecodeExpression(expr, nil, &pair)...)
	if diags.HasErrors() {
		return nil, diags
	}
	if len(pair) != 2 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid timing",
			Detail:   fmt.Sprintf("Timing must be a pair [rate, priority], got %d elements.", len(pair)),
			Subject:  expr.Range().Ptr(),
		})
		return nil, diags
	}
	return &descriptor.Timing{Rate: pair[0], Priority: pair[1]}, diags
}

// decodeParams evaluates the `params` object. Values stay as cty values so
// the kind schema can convert and check them later.
func decodeParams(expr hcl.Expression) (map[string]cty.Value, hcl.Diagnostics) {
	params := map[string]cty.Value{}

	val, diags := expr.Value(nil)
	if diags.HasErrors() || val.IsNull() {
		return params, diags
	}

	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid params",
			Detail:   fmt.Sprintf("The 'params' attribute must be an object, got %s.", ty.FriendlyName()),
			Subject:  expr.Range().Ptr(),
		})
		return params, diags
	}

	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		params[k.AsString()] = v
	}
	return params, diags
}
