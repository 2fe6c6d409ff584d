// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file decodes `kind` manifests into descriptor.Kind schemas.
//
// A manifest is the single source of truth for what a block kind accepts:
// its direction, how many ports it may have, which bus protocol it talks to
// and which parameters it takes. Parameters are typed with cty so a diagram
// value can be checked and converted before any code is generated for it.
package kindreg

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/zclconf/go-cty/cty"
)

// manifestFile is the top-level structure of a manifest: one or more `kind`
// blocks.
type manifestFile struct {
	Kinds []*kindBlock `hcl:"kind,block"`
}

type kindBlock struct {
	Name        string         `hcl:"name,label"`
	Description *string        `hcl:"description,optional"`
	Direction   hcl.Expression `hcl:"direction"`
	Bus         *string        `hcl:"bus,optional"`
	MinInputs   *int           `hcl:"min_inputs,optional"`
	MaxInputs   *int           `hcl:"max_inputs,optional"`
	MinOutputs  *int           `hcl:"min_outputs,optional"`
	MaxOutputs  *int           `hcl:"max_outputs,optional"`
	Timing      hcl.Expression `hcl:"timing,optional"`
	Feedthrough *bool          `hcl:"feedthrough,optional"`
	Params      []*paramBlock  `hcl:"param,block"`
}

type paramBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description *string        `hcl:"description,optional"`
	Class       hcl.Expression `hcl:"class,optional"`
	Role        hcl.Expression `hcl:"role,optional"`
	Integer     *bool          `hcl:"integer,optional"`
	Min         *float64       `hcl:"min,optional"`
	Max         *float64       `hcl:"max,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
}

// ParseManifest decodes every `kind` block of an already parsed HCL file.
// Schema problems that only show up once the kind is assembled (for example a
// sink declaring outputs) are reported later by Kind.Validate at
// registration.
func ParseManifest(ctx context.Context, file *hcl.File, filename string) ([]*descriptor.Kind, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing kind manifest", "file", filename)

	if file == nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "HCL file is nil",
			Detail:   fmt.Sprintf("No parsed content for manifest %s.", filename),
		}}
	}

	var root manifestFile
	diags := gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, diags
	}

	kinds := make([]*descriptor.Kind, 0, len(root.Kinds))
	for _, kb := range root.Kinds {
		kind, kindDiags := kb.toKind()
		diags = append(diags, kindDiags...)
		if kindDiags.HasErrors() {
			continue
		}
		kinds = append(kinds, kind)
	}

	if diags.HasErrors() {
		return nil, diags
	}

	logger.Debug("Parsed kind manifest", "file", filename, "count", len(kinds))
	return kinds, diags
}

func (kb *kindBlock) toKind() (*descriptor.Kind, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	kind := &descriptor.Kind{
		Name:        kb.Name,
		Description: deref(kb.Description, ""),
		Bus:         deref(kb.Bus, ""),
		Delay:       !deref(kb.Feedthrough, true),
	}

	var dirName string
	diags = append(diags, gohcl.DecodeExpression(kb.Direction, nil, &dirName)...)
	if diags.HasErrors() {
		return nil, diags
	}
	dir, err := descriptor.ParseDirection(dirName)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid direction",
			Detail:   fmt.Sprintf("Kind '%s': %s.", kb.Name, err),
			Subject:  kb.Direction.Range().Ptr(),
		})
		return nil, diags
	}
	kind.Direction = dir

	// Sources default to no inputs, sinks to no outputs; every other bound
	// defaults to exactly one port.
	minIn, minOut := 1, 1
	switch dir {
	case descriptor.Source:
		minIn = 0
	case descriptor.Sink:
		minOut = 0
	}
	kind.MinInputs = deref(kb.MinInputs, minIn)
	kind.MaxInputs = deref(kb.MaxInputs, kind.MinInputs)
	kind.MinOutputs = deref(kb.MinOutputs, minOut)
	kind.MaxOutputs = deref(kb.MaxOutputs, kind.MinOutputs)

	timing, timingDiags := decodeTiming(kb.Timing)
	diags = append(diags, timingDiags...)
	kind.Timing = timing

	for _, pb := range kb.Params {
		spec, paramDiags := pb.toParamSpec()
		diags = append(diags, paramDiags...)
		if paramDiags.HasErrors() {
			continue
		}
		kind.Params = append(kind.Params, spec)
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return kind, diags
}

func (pb *paramBlock) toParamSpec() (descriptor.ParamSpec, hcl.Diagnostics) {
	spec := descriptor.ParamSpec{
		Name:        pb.Name,
		Description: deref(pb.Description, ""),
		Min:         pb.Min,
		Max:         pb.Max,
	}

	ty, diags := typeFromExpr(pb.Type)
	if diags.HasErrors() {
		return spec, diags
	}
	spec.Type = ty

	role, roleDiags := optionalString(pb.Role)
	diags = append(diags, roleDiags...)
	spec.Role = descriptor.ParamRole(role)

	class, classDiags := optionalString(pb.Class)
	diags = append(diags, classDiags...)
	switch class {
	case "":
		if spec.Role == descriptor.RoleDeviceID {
			spec.Class = descriptor.ClassDevice
		}
	case "static":
		spec.Class = descriptor.ClassStatic
	case "device":
		spec.Class = descriptor.ClassDevice
	default:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid parameter class",
			Detail:   fmt.Sprintf("Parameter '%s': class must be 'static' or 'device', got '%s'.", pb.Name, class),
			Subject:  pb.Class.Range().Ptr(),
		})
	}

	// Roles the compiler depends on are always integers.
	spec.Integer = deref(pb.Integer, spec.Role != descriptor.RoleNone)

	def, defDiags := pb.Default.Value(nil)
	diags = append(diags, defDiags...)
	if !defDiags.HasErrors() && !def.IsNull() {
		spec.Default = &def
	}

	return spec, diags
}

// decodeTiming reads the optional `timing = [rate, priority]` pair.
func decodeTiming(expr hcl.Expression) (descriptor.Timing, hcl.Diagnostics) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() || val.IsNull() {
		return descriptor.Timing{}, diags
	}

	var pair []int
	diags = append(diags, gohcl.DecodeExpression(expr, nil, &pair)...)
	if diags.HasErrors() {
		return descriptor.Timing{}, diags
	}
	if len(pair) != 2 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid timing",
			Detail:   fmt.Sprintf("Timing must be a pair [rate, priority], got %d elements.", len(pair)),
			Subject:  expr.Range().Ptr(),
		})
		return descriptor.Timing{}, diags
	}
	return descriptor.Timing{Rate: pair[0], Priority: pair[1]}, diags
}

// optionalString decodes an optional string attribute, returning "" when it
// was not set.
func optionalString(expr hcl.Expression) (string, hcl.Diagnostics) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() || val.IsNull() {
		return "", diags
	}
	if !val.Type().Equals(cty.String) {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Incorrect attribute value type",
			Detail:   fmt.Sprintf("A string is required, got %s.", val.Type().FriendlyName()),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return val.AsString(), diags
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
