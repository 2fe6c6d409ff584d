package kindreg

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// typeFromExpr converts a type keyword expression (`number`, `string`,
// `bool`) into its cty.Type.
func typeFromExpr(expr hcl.Expression) (cty.Type, hcl.Diagnostics) {
	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() || len(traversal) != 1 {
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid type specification",
			Detail:   "The 'type' attribute must be a simple type keyword like 'string', 'number', or 'bool'.",
			Subject:  expr.Range().Ptr(),
		}}
	}

	switch name := traversal.RootName(); name {
	case "string":
		return cty.String, nil
	case "number":
		return cty.Number, nil
	case "bool":
		return cty.Bool, nil
	case "any", "list", "map", "set", "object", "tuple":
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported parameter type",
			Detail:   fmt.Sprintf("Block parameters are scalar; the type '%s' cannot be passed to generated code.", name),
			Subject:  expr.Range().Ptr(),
		}}
	default:
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported type",
			Detail:   fmt.Sprintf("The keyword '%s' is not a valid type. Supported types are: string, number, bool.", name),
			Subject:  expr.Range().Ptr(),
		}}
	}
}
