package render

import (
	"io"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/rcpgrid/internal/compiler"
	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/zclconf/go-cty/cty"
)

// HCL writes the schedule as HCL: one `step` block per step, each holding
// one `exec` block per entry in execution order.
//
//	pass = "cs2k1..."
//
//	step "0" {
//	  kind = "bus"
//	  bus  = "can0"
//
//	  exec "tq" {
//	    kind      = "FH_5XXX_getTQ"
//	    direction = "source"
//	    ...
//	  }
//	}
func HCL(w io.Writer, res *compiler.Result) error {
	f := hclwrite.NewEmptyFile()
	root := f.Body()
	root.SetAttributeValue("pass", cty.StringVal(res.PassID))

	for _, step := range res.Steps {
		root.AppendNewline()
		sb := root.AppendNewBlock("step", []string{strconv.Itoa(step.Index)}).Body()
		sb.SetAttributeValue("kind", cty.StringVal(step.Kind.String()))
		if step.Bus != "" {
			sb.SetAttributeValue("bus", cty.StringVal(step.Bus))
		}

		for _, e := range step.Entries {
			d := e.Descriptor
			sb.AppendNewline()
			eb := sb.AppendNewBlock("exec", []string{d.ID()}).Body()
			eb.SetAttributeValue("kind", cty.StringVal(d.Name()))
			eb.SetAttributeValue("direction", cty.StringVal(d.Direction().String()))
			eb.SetAttributeValue("timing", cty.TupleVal([]cty.Value{
				cty.NumberIntVal(int64(d.Timing().Rate)),
				cty.NumberIntVal(int64(d.Timing().Priority)),
			}))
			if srcs := inputSources(res, d); len(srcs) > 0 {
				vals := make([]cty.Value, 0, len(srcs))
				for _, s := range srcs {
					vals = append(vals, cty.StringVal(s))
				}
				eb.SetAttributeValue("inputs", cty.ListVal(vals))
			}
			eb.SetAttributeValue("outputs", cty.NumberIntVal(int64(d.NumOutputs())))
			if v, ok := paramObject(d.StaticParams()); ok {
				eb.SetAttributeValue("params", v)
			}
			if v, ok := paramObject(d.DeviceParams()); ok {
				eb.SetAttributeValue("device_params", v)
			}
			if tx := e.Transaction; tx != nil {
				eb.SetAttributeValue("access", cty.StringVal(tx.Access.String()))
				eb.SetAttributeValue("device_id", cty.NumberIntVal(int64(tx.DeviceID)))
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func paramObject(params []descriptor.Param) (cty.Value, bool) {
	if len(params) == 0 {
		return cty.NilVal, false
	}
	attrs := make(map[string]cty.Value, len(params))
	for _, p := range params {
		attrs[p.Name] = p.Value
	}
	return cty.ObjectVal(attrs), true
}
