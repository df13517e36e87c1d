package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/fsutil"
)

// Extension is the file extension of HCL project files.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL project loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every HCL file found under paths and merges their blocks into
// one project. A name defined twice across files is an error.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Project, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	project := &config.Project{}
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		part, err := decodeFile(ctx, hclFile)
		if err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
		if err := merge(project, part); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}

	logger.Debug("HCL loading complete.", "functions", len(project.Functions), "flows", len(project.Flows))
	return project, nil
}

// Decode parses a single HCL document held in memory.
func Decode(ctx context.Context, src []byte, filename string) (*config.Project, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	return decodeFile(ctx, hclFile)
}

func decodeFile(ctx context.Context, file *hcl.File) (*config.Project, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, diags
	}

	project := &config.Project{}
	for _, b := range root.Functions {
		f, err := translateFlow(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", b.Name, err)
		}
		project.Functions = append(project.Functions, f)
	}
	for _, b := range root.Flows {
		f, err := translateFlow(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("flow %q: %w", b.Name, err)
		}
		project.Flows = append(project.Flows, f)
	}
	return project, nil
}

func merge(dst, src *config.Project) error {
	for _, f := range src.Functions {
		if _, dup := dst.Function(f.Name); dup {
			return fmt.Errorf("function %q defined more than once", f.Name)
		}
		dst.Functions = append(dst.Functions, f)
	}
	for _, f := range src.Flows {
		if _, dup := dst.Flow(f.Name); dup {
			return fmt.Errorf("flow %q defined more than once", f.Name)
		}
		dst.Flows = append(dst.Flows, f)
	}
	return nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found. Paths that do not exist are skipped.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if fsutil.HasExtension(path, Extension) {
				add(path)
			}
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, Extension)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	return all, nil
}
