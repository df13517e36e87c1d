package codec

import (
	"fmt"

	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/nodeid"
)

// The document types are the serialized shape shared by the JSON and
// msgpack codecs.

type projectDoc struct {
	Functions []*flowDoc `json:"functions" msgpack:"functions"`
	Flows     []*flowDoc `json:"flows" msgpack:"flows"`
}

type flowDoc struct {
	Name        string     `json:"name" msgpack:"name"`
	Version     int        `json:"version" msgpack:"version"`
	Mode        string     `json:"mode,omitempty" msgpack:"mode,omitempty"`
	NextID      int        `json:"next_id" msgpack:"next_id"`
	Nodes       []*nodeDoc `json:"nodes,omitempty" msgpack:"nodes,omitempty"`
	Connections []*connDoc `json:"connections,omitempty" msgpack:"connections,omitempty"`
	Variables   []*varDoc  `json:"variables,omitempty" msgpack:"variables,omitempty"`
}

type nodeDoc struct {
	ID       int        `json:"id" msgpack:"id"`
	Type     string     `json:"type" msgpack:"type"`
	Version  string     `json:"version,omitempty" msgpack:"version,omitempty"`
	State    value      `json:"state,omitzero" msgpack:"state,omitempty"`
	Inputs   []*portDoc `json:"inputs,omitempty" msgpack:"inputs,omitempty"`
	Outputs  []*portDoc `json:"outputs,omitempty" msgpack:"outputs,omitempty"`
	Subgraph *flowDoc   `json:"subgraph,omitempty" msgpack:"subgraph,omitempty"`
}

type portDoc struct {
	Kind    string `json:"kind" msgpack:"kind"`
	Label   string `json:"label,omitempty" msgpack:"label,omitempty"`
	Hint    string `json:"hint,omitempty" msgpack:"hint,omitempty"`
	Default value  `json:"default,omitzero" msgpack:"default,omitempty"`
	Value   value  `json:"value,omitzero" msgpack:"value,omitempty"`
}

type connDoc struct {
	From string `json:"from" msgpack:"from"`
	To   string `json:"to" msgpack:"to"`
}

type varDoc struct {
	Name  string `json:"name" msgpack:"name"`
	Value value  `json:"value" msgpack:"value"`
}

func toDoc(p *config.Project) *projectDoc {
	d := &projectDoc{Functions: []*flowDoc{}, Flows: []*flowDoc{}}
	for _, f := range p.Functions {
		d.Functions = append(d.Functions, flowToDoc(f))
	}
	for _, f := range p.Flows {
		d.Flows = append(d.Flows, flowToDoc(f))
	}
	return d
}

func flowToDoc(f *config.Flow) *flowDoc {
	d := &flowDoc{Name: f.Name, Version: f.Version, Mode: f.Mode, NextID: f.NextID}
	for _, n := range f.Nodes {
		nd := &nodeDoc{
			ID:      n.ID,
			Type:    n.Type,
			Version: n.Version,
			State:   optional(n.State),
			Inputs:  portsToDoc(n.Inputs),
			Outputs: portsToDoc(n.Outputs),
		}
		if n.Subgraph != nil {
			nd.Subgraph = flowToDoc(n.Subgraph)
		}
		d.Nodes = append(d.Nodes, nd)
	}
	for _, c := range f.Connections {
		d.Connections = append(d.Connections, &connDoc{From: c.From.String(), To: c.To.String()})
	}
	for _, v := range f.Variables {
		d.Variables = append(d.Variables, &varDoc{Name: v.Name, Value: optional(v.Value)})
	}
	return d
}

func portsToDoc(ports []*config.Port) []*portDoc {
	var out []*portDoc
	for _, p := range ports {
		out = append(out, &portDoc{
			Kind:    p.Kind,
			Label:   p.Label,
			Hint:    p.Hint,
			Default: optionalPtr(p.Default),
			Value:   optionalPtr(p.Value),
		})
	}
	return out
}

func fromDoc(d *projectDoc) (*config.Project, error) {
	p := &config.Project{}
	for _, fd := range d.Functions {
		f, err := flowFromDoc(fd)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", fd.Name, err)
		}
		p.Functions = append(p.Functions, f)
	}
	for _, fd := range d.Flows {
		f, err := flowFromDoc(fd)
		if err != nil {
			return nil, fmt.Errorf("flow %q: %w", fd.Name, err)
		}
		p.Flows = append(p.Flows, f)
	}
	return p, nil
}

func flowFromDoc(d *flowDoc) (*config.Flow, error) {
	f := &config.Flow{Name: d.Name, Version: d.Version, Mode: d.Mode, NextID: d.NextID}
	for _, nd := range d.Nodes {
		n := &config.Node{
			ID:      nd.ID,
			Type:    nd.Type,
			Version: nd.Version,
			State:   nd.State.get(),
			Inputs:  portsFromDoc(nd.Inputs),
			Outputs: portsFromDoc(nd.Outputs),
		}
		if nd.Subgraph != nil {
			sub, err := flowFromDoc(nd.Subgraph)
			if err != nil {
				return nil, fmt.Errorf("node n%d subgraph: %w", nd.ID, err)
			}
			n.Subgraph = sub
		}
		f.Nodes = append(f.Nodes, n)
	}
	for _, cd := range d.Connections {
		from, err := nodeid.Parse(cd.From)
		if err != nil {
			return nil, fmt.Errorf("connection from: %w", err)
		}
		to, err := nodeid.Parse(cd.To)
		if err != nil {
			return nil, fmt.Errorf("connection to: %w", err)
		}
		f.Connections = append(f.Connections, &config.Connection{From: from, To: to})
	}
	for _, vd := range d.Variables {
		f.Variables = append(f.Variables, &config.Variable{Name: vd.Name, Value: vd.Value.get()})
	}
	return f, nil
}

func portsFromDoc(docs []*portDoc) []*config.Port {
	var out []*config.Port
	for _, d := range docs {
		out = append(out, &config.Port{
			Kind:    d.Kind,
			Label:   d.Label,
			Hint:    d.Hint,
			Default: d.Default.ptr(),
			Value:   d.Value.ptr(),
		})
	}
	return out
}
