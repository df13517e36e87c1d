package hcl

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// isExprDefined checks if an HCL expression was actually present in the
// source. The decoder populates omitted optional attributes with zero-width
// placeholder expressions, so a nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}

// literal evaluates a constant expression. Snapshots carry no variables or
// functions, so evaluation uses no context.
func literal(ctx context.Context, expr hcl.Expression, attrName string) (*cty.Value, error) {
	if !isExprDefined(ctx, expr, attrName) {
		return nil, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("attribute %q: %w", attrName, diags)
	}
	return &v, nil
}

// ParseValue reads a command-line value as an HCL expression, so that
// `3`, `true`, `[1, 2]` and `{a = 1}` keep their types. Anything that is not
// a constant expression, such as a bare word, is taken as a string.
func ParseValue(raw string) cty.Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return cty.StringVal(raw)
	}
	expr, diags := hclsyntax.ParseExpression([]byte(trimmed), "<value>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.StringVal(raw)
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() || !v.IsWhollyKnown() {
		return cty.StringVal(raw)
	}
	return v
}

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
