package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all possible top-level blocks from any file.
// Unknown blocks and attributes land in Remain and are ignored.
type fileRoot struct {
	Functions []*flowBlock `hcl:"function,block"`
	Flows     []*flowBlock `hcl:"flow,block"`
	Remain    hcl.Body     `hcl:",remain"`
}

// flowBlock is the schema for `flow`, `function` and nested `subgraph`
// blocks.
type flowBlock struct {
	Name        string             `hcl:"name,label"`
	Version     *int               `hcl:"version,optional"`
	Mode        *string            `hcl:"mode,optional"`
	NextID      *int               `hcl:"next_id,optional"`
	Nodes       []*nodeBlock       `hcl:"node,block"`
	Connections []*connectionBlock `hcl:"connection,block"`
	Variables   []*variableBlock   `hcl:"variable,block"`
	Remain      hcl.Body           `hcl:",remain"`
}

// nodeBlock is labelled with the node address, e.g. `node "n3"`.
type nodeBlock struct {
	ID       string         `hcl:"id,label"`
	Type     string         `hcl:"type"`
	Version  *string        `hcl:"version,optional"`
	State    hcl.Expression `hcl:"state,optional"`
	Inputs   []*portBlock   `hcl:"input,block"`
	Outputs  []*portBlock   `hcl:"output,block"`
	Subgraph *flowBlock     `hcl:"subgraph,block"`
	Remain   hcl.Body       `hcl:",remain"`
}

type portBlock struct {
	Kind    *string        `hcl:"kind,optional"`
	Label   *string        `hcl:"label,optional"`
	Hint    *string        `hcl:"hint,optional"`
	Default hcl.Expression `hcl:"default,optional"`
	Value   hcl.Expression `hcl:"value,optional"`
	Remain  hcl.Body       `hcl:",remain"`
}

type connectionBlock struct {
	From   string   `hcl:"from"`
	To     string   `hcl:"to"`
	Remain hcl.Body `hcl:",remain"`
}

type variableBlock struct {
	Name   string         `hcl:"name,label"`
	Value  hcl.Expression `hcl:"value,optional"`
	Remain hcl.Body       `hcl:",remain"`
}
