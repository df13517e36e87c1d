package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/flow"
)

// ValidateRegistry performs a strict check that every registered type can
// be instantiated and saved: port kinds are known, exec ports carry no
// defaults, and every default converts to a snapshot value.
func (r *Registry) ValidateRegistry(ctx context.Context, conv config.Converter) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, t := range r.Types() {
		if t.New == nil {
			logger.Debug("Node type has no behavior and will do nothing when updated.", "type", t.ID)
		}
		for _, group := range []struct {
			dir   string
			ports []flow.PortConfig
		}{{"input", t.Inputs}, {"output", t.Outputs}} {
			for i, p := range group.ports {
				switch p.Kind {
				case flow.Data:
				case flow.Exec:
					if p.Default != nil {
						errs = append(errs, fmt.Sprintf("type '%s', %s %d: exec ports cannot have a default", t.ID, group.dir, i))
					}
					continue
				default:
					errs = append(errs, fmt.Sprintf("type '%s', %s %d: unknown port kind %s", t.ID, group.dir, i, p.Kind))
					continue
				}
				if p.Default == nil {
					continue
				}
				if group.dir == "output" {
					logger.Warn("Default on an output port is ignored.", "type", t.ID, "output", i)
					continue
				}
				if _, err := conv.ToCtyValue(p.Default); err != nil {
					errs = append(errs, fmt.Sprintf("type '%s', input %d: default cannot be saved: %v", t.ID, i, err))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
