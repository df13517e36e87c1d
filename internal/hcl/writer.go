package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Encode renders a project as an HCL document: function blocks first, then
// flow blocks.
func Encode(p *config.Project) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	for _, fn := range p.Functions {
		if err := writeFlow(body.AppendNewBlock("function", []string{fn.Name}).Body(), fn); err != nil {
			return nil, fmt.Errorf("function %q: %w", fn.Name, err)
		}
		body.AppendNewline()
	}
	for _, fl := range p.Flows {
		if err := writeFlow(body.AppendNewBlock("flow", []string{fl.Name}).Body(), fl); err != nil {
			return nil, fmt.Errorf("flow %q: %w", fl.Name, err)
		}
		body.AppendNewline()
	}
	return f.Bytes(), nil
}

func writeFlow(b *hclwrite.Body, f *config.Flow) error {
	b.SetAttributeValue("version", cty.NumberIntVal(int64(f.Version)))
	if f.Mode != "" {
		b.SetAttributeValue("mode", cty.StringVal(f.Mode))
	}
	b.SetAttributeValue("next_id", cty.NumberIntVal(int64(f.NextID)))

	for _, v := range f.Variables {
		vb := b.AppendNewBlock("variable", []string{v.Name}).Body()
		if err := setValue(vb, "value", v.Value); err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}

	for _, n := range f.Nodes {
		b.AppendNewline()
		if err := writeNode(b.AppendNewBlock("node", []string{nodeid.ID(n.ID).String()}).Body(), n); err != nil {
			return fmt.Errorf("node n%d: %w", n.ID, err)
		}
	}

	for _, c := range f.Connections {
		cb := b.AppendNewBlock("connection", nil).Body()
		cb.SetAttributeValue("from", cty.StringVal(c.From.String()))
		cb.SetAttributeValue("to", cty.StringVal(c.To.String()))
	}
	return nil
}

func writeNode(b *hclwrite.Body, n *config.Node) error {
	b.SetAttributeValue("type", cty.StringVal(n.Type))
	if n.Version != "" {
		b.SetAttributeValue("version", cty.StringVal(n.Version))
	}
	if !n.State.IsNull() {
		if err := setValue(b, "state", n.State); err != nil {
			return fmt.Errorf("state: %w", err)
		}
	}
	for _, group := range []struct {
		name  string
		ports []*config.Port
	}{{"input", n.Inputs}, {"output", n.Outputs}} {
		for i, p := range group.ports {
			pb := b.AppendNewBlock(group.name, nil).Body()
			pb.SetAttributeValue("kind", cty.StringVal(p.Kind))
			if p.Label != "" {
				pb.SetAttributeValue("label", cty.StringVal(p.Label))
			}
			if p.Hint != "" {
				pb.SetAttributeValue("hint", cty.StringVal(p.Hint))
			}
			if p.Default != nil {
				if err := setValue(pb, "default", *p.Default); err != nil {
					return fmt.Errorf("%s %d default: %w", group.name, i, err)
				}
			}
			if p.Value != nil {
				if err := setValue(pb, "value", *p.Value); err != nil {
					return fmt.Errorf("%s %d value: %w", group.name, i, err)
				}
			}
		}
	}
	if n.Subgraph != nil {
		if err := writeFlow(b.AppendNewBlock("subgraph", []string{n.Subgraph.Name}).Body(), n.Subgraph); err != nil {
			return fmt.Errorf("subgraph: %w", err)
		}
	}
	return nil
}

func setValue(b *hclwrite.Body, name string, v cty.Value) error {
	if v.IsNull() {
		v = cty.NullVal(cty.DynamicPseudoType)
	}
	if !v.IsWhollyKnown() {
		return fmt.Errorf("attribute %q holds an unknown value", name)
	}
	b.SetAttributeValue(name, v)
	return nil
}
