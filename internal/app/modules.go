package app

import (
	"io"

	"github.com/specialistvlad/flowcore/internal/registry"
	"github.com/specialistvlad/flowcore/modules/arith"
	"github.com/specialistvlad/flowcore/modules/control"
	"github.com/specialistvlad/flowcore/modules/env_vars"
	"github.com/specialistvlad/flowcore/modules/http_request"
	"github.com/specialistvlad/flowcore/modules/print"
	"github.com/specialistvlad/flowcore/modules/rand"
	"github.com/specialistvlad/flowcore/modules/value"
	"github.com/specialistvlad/flowcore/modules/vars"
)

// coreModules is the definitive list of node modules compiled into the
// flowcore binary. print writes to out.
func coreModules(out io.Writer) []registry.Module {
	return []registry.Module{
		&rand.Module{},
		&print.Module{Out: out},
		&arith.Module{},
		&value.Module{},
		&vars.Module{},
		&control.Module{},
		&env_vars.Module{},
		&http_request.Module{},
	}
}
