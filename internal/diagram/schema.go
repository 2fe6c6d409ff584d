package diagram

import "github.com/hashicorp/hcl/v2"

// fileSchema is the top-level structure of a diagram file.
type fileSchema struct {
	Buses  []*busBlock   `hcl:"bus,block"`
	Blocks []*blockBlock `hcl:"block,block"`
	Wires  []*wireBlock  `hcl:"wire,block"`
}

type busBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

type busBody struct {
	Protocol    string `hcl:"protocol"`
	MaxDeviceID *int   `hcl:"max_device_id,optional"`
}

type blockBlock struct {
	ID   string   `hcl:"id,label"`
	Kind string   `hcl:"kind,label"`
	Body hcl.Body `hcl:",remain"`
}

type blockBody struct {
	Inputs    *int           `hcl:"inputs,optional"`
	Outputs   *int           `hcl:"outputs,optional"`
	Direction hcl.Expression `hcl:"direction,optional"`
	Timing    hcl.Expression `hcl:"timing,optional"`
	Bus       *string        `hcl:"bus,optional"`
	Params    hcl.Expression `hcl:"params,optional"`
}

type wireBlock struct {
	From hcl.Expression `hcl:"from"`
	To   hcl.Expression `hcl:"to"`
}
